package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/ranking"
	"smartquote/backend/internal/store"
	"smartquote/backend/internal/store/memory"
)

func newTestService() (*Service, *memory.Store) {
	repo := memory.NewSeeded()
	return New(repo, ranking.NewEngine(nil, 0), nil, 1), repo
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

// approvedQuote creates a Jakarta quote for cust-adi with a single hammer
// line and approves it. Returns the quote id and the item id.
func approvedQuote(t *testing.T, svc *Service) (string, string) {
	t.Helper()
	ctx := adminCtx()

	quote, err := svc.CreateQuote(ctx, domain.QuoteCreateRequest{
		CustomerID: "cust-adi",
		AreaCodes:  []string{"JKT"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}

	item, err := svc.AddQuoteItem(ctx, quote.ID, domain.QuoteItemCreateRequest{
		CategoryCode: "CAT-TOOL",
		ProductName:  "Palu Besi",
		Unit:         "pcs",
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if _, err := svc.UpdateQuoteStatus(ctx, quote.ID, domain.QuoteStatusApproved, "admin"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	return quote.ID, item.ID
}

func TestCreateQuoteStartsWaiting(t *testing.T) {
	svc, _ := newTestService()

	quote, err := svc.CreateQuote(context.Background(), domain.QuoteCreateRequest{
		CustomerID: "cust-adi",
		AreaCodes:  []string{"JKT", "JKT", "BDG"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	if quote.Status != domain.QuoteStatusWaitForApproval {
		t.Fatalf("expected wait_for_approval, got %s", quote.Status)
	}
	if len(quote.AreaCodes) != 2 {
		t.Fatalf("expected duplicate areas collapsed, got %v", quote.AreaCodes)
	}
}

func TestApprovalDistributesToAreaSuppliers(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	quote, err := svc.CreateQuote(ctx, domain.QuoteCreateRequest{
		CustomerID: "cust-adi",
		AreaCodes:  []string{"JKT"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	if _, err := svc.AddQuoteItem(ctx, quote.ID, domain.QuoteItemCreateRequest{
		CategoryCode: "CAT-TOOL",
		ProductName:  "Palu Besi",
		Unit:         "pcs",
		Quantity:     10,
	}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	resp, err := svc.UpdateQuoteStatus(ctx, quote.ID, "approved", "admin")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if resp.Status != domain.QuoteStatusApproved {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
	// Seeded suppliers serving Jakarta: sup-berkah, sup-delta, sup-eka.
	if resp.Distributions != 3 {
		t.Fatalf("expected 3 distributions, got %d", resp.Distributions)
	}
}

func TestRepeatedApprovalCreatesNothingNew(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	resp, err := svc.UpdateQuoteStatus(adminCtx(), quoteID, domain.QuoteStatusApproved, "admin")
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if resp.Status != domain.QuoteStatusApproved {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
	if resp.Distributions != 0 {
		t.Fatalf("expected idempotent re-approval, got %d new distributions", resp.Distributions)
	}
}

func TestRejectedQuoteStaysRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	quote, err := svc.CreateQuote(ctx, domain.QuoteCreateRequest{
		CustomerID: "cust-adi",
		AreaCodes:  []string{"JKT"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	if _, err := svc.UpdateQuoteStatus(ctx, quote.ID, "rejected", "admin"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	_, err = svc.UpdateQuoteStatus(ctx, quote.ID, "approved", "admin")
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden approving a rejected quote, got %v", err)
	}
}

func TestUpdateQuoteStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	_, err := svc.UpdateQuoteStatus(adminCtx(), quoteID, "archived", "admin")
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestItemsFrozenAfterApproval(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	_, err := svc.AddQuoteItem(adminCtx(), quoteID, domain.QuoteItemCreateRequest{
		CategoryCode: "CAT-TOOL",
		ProductName:  "Obeng",
		Unit:         "pcs",
		Quantity:     2,
	})
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSubmitResponseInfersAreaFromDistribution(t *testing.T) {
	svc, _ := newTestService()
	_, itemID := approvedQuote(t, svc)

	resp, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-berkah",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       28000,
	})
	if err != nil {
		t.Fatalf("submit response failed: %v", err)
	}
	if resp.AreaCode != "JKT" {
		t.Fatalf("expected inferred area JKT, got %s", resp.AreaCode)
	}
	if resp.CategoryCode != "CAT-TOOL" {
		t.Fatalf("expected category copied from the item, got %s", resp.CategoryCode)
	}
}

func TestSubmitResponseWithoutDistributionRefused(t *testing.T) {
	svc, _ := newTestService()
	_, itemID := approvedQuote(t, svc)

	// sup-cahaya serves Bandung only and was never notified.
	_, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-cahaya",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       20000,
	})
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSubmitResponseBeforeApprovalRefused(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	quote, err := svc.CreateQuote(ctx, domain.QuoteCreateRequest{
		CustomerID: "cust-adi",
		AreaCodes:  []string{"JKT"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	item, err := svc.AddQuoteItem(ctx, quote.ID, domain.QuoteItemCreateRequest{
		CategoryCode: "CAT-TOOL",
		ProductName:  "Palu Besi",
		Unit:         "pcs",
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	_, err = svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      item.ID,
		SupplierID:  "sup-berkah",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       28000,
	})
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResultsMaskUnrevealedSuppliers(t *testing.T) {
	svc, _ := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	if _, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-berkah",
		ProductName: "palu besi",
		Quantity:    10,
		Price:       25000,
	}); err != nil {
		t.Fatalf("submit response failed: %v", err)
	}

	out, err := svc.Results(context.Background(), "cust-adi", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 0)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(out.Results))
	}

	cand := out.Results[0]
	if cand.SupplierID != "sup-berkah" {
		t.Fatalf("expected supplier id kept, got %q", cand.SupplierID)
	}
	if cand.SupplierName != "" || cand.ContactRevealed {
		t.Fatalf("expected supplier identity hidden before reveal, got %+v", cand)
	}
	if cand.AreaName != "Jakarta" {
		t.Fatalf("expected area label enrichment, got %q", cand.AreaName)
	}
	if cand.CategoryName == "" {
		t.Fatalf("expected category label enrichment")
	}
}

func TestResultsRejectsUnsupportedTopN(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	_, err := svc.Results(context.Background(), "cust-adi", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 5)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation for top=5, got %v", err)
	}
}

func TestResultsEnforceQuoteOwnership(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	_, err := svc.Results(context.Background(), "cust-buana", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 0)
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRevealContactDebitsOnceThenIsFree(t *testing.T) {
	svc, _ := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	req := domain.RevealRequest{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
		CustomerID: "cust-adi",
	}

	first, err := svc.RevealContact(context.Background(), req)
	if err != nil {
		t.Fatalf("reveal failed: %v", err)
	}
	if first.Status != domain.RevealStatusRevealed {
		t.Fatalf("expected revealed, got %s", first.Status)
	}
	if first.TokenBalance != 4 {
		t.Fatalf("expected balance 4 after debit from the seeded 5, got %d", first.TokenBalance)
	}

	second, err := svc.RevealContact(context.Background(), req)
	if err != nil {
		t.Fatalf("repeat reveal failed: %v", err)
	}
	if second.Status != domain.RevealStatusAlreadyRevealed {
		t.Fatalf("expected already_revealed, got %s", second.Status)
	}
	if second.TokenBalance != 4 {
		t.Fatalf("expected no second debit, balance went to %d", second.TokenBalance)
	}

	contact, err := svc.SupplierContact(context.Background(), "sup-berkah", quoteID, itemID)
	if err != nil {
		t.Fatalf("supplier contact failed: %v", err)
	}
	if !contact.Revealed || contact.Contact == nil || contact.Contact.Email == "" {
		t.Fatalf("expected full contact after reveal, got %+v", contact)
	}
}

func TestRevealShowsSupplierNameInResults(t *testing.T) {
	svc, _ := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	if _, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-berkah",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       25000,
	}); err != nil {
		t.Fatalf("submit response failed: %v", err)
	}
	if _, err := svc.RevealContact(context.Background(), domain.RevealRequest{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
	}); err != nil {
		t.Fatalf("reveal failed: %v", err)
	}

	out, err := svc.Results(context.Background(), "cust-adi", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 0)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	cand := out.Results[0]
	if !cand.ContactRevealed || cand.SupplierName != "CV Berkah Teknik" {
		t.Fatalf("expected revealed supplier name, got %+v", cand)
	}
}

func TestRevealCompletesAfterPartialFailureWithoutSecondDebit(t *testing.T) {
	svc, repo := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	// A debit that landed without its unlock leaves a charged-only record.
	if err := repo.SaveRevealPurchase(context.Background(), domain.RevealPurchase{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
		CustomerID: "cust-adi",
		Charged:    true,
		ChargedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save purchase failed: %v", err)
	}

	resp, err := svc.RevealContact(context.Background(), domain.RevealRequest{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
	})
	if err != nil {
		t.Fatalf("recovery reveal failed: %v", err)
	}
	if resp.Status != domain.RevealStatusRevealed {
		t.Fatalf("expected revealed, got %s", resp.Status)
	}
	if resp.TokenBalance != 5 {
		t.Fatalf("expected the existing charge honored without a new debit, balance %d", resp.TokenBalance)
	}
}

type flakyChargeRepo struct {
	store.Repository
	failures int
}

func (r *flakyChargeRepo) ChargeReveal(ctx context.Context, entry domain.TokenEntry, purchase domain.RevealPurchase) (*domain.TokenEntry, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("connection reset")
	}
	return r.Repository.ChargeReveal(ctx, entry, purchase)
}

func TestRevealRetryAfterChargeFailureDebitsOnce(t *testing.T) {
	repo := memory.NewSeeded()
	flaky := &flakyChargeRepo{Repository: repo, failures: 1}
	svc := New(flaky, ranking.NewEngine(nil, 0), nil, 1)
	quoteID, itemID := approvedQuote(t, svc)

	req := domain.RevealRequest{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
		CustomerID: "cust-adi",
	}

	if _, err := svc.RevealContact(context.Background(), req); err == nil {
		t.Fatal("expected the first reveal to fail")
	}
	balance, err := repo.GetTokenBalance(context.Background(), "cust-adi")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance != 5 {
		t.Fatalf("a failed charge must not debit, balance went to %d", balance)
	}
	if _, err := repo.GetRevealPurchase(context.Background(), quoteID, itemID, "sup-berkah"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("a failed charge must not record a purchase, got %v", err)
	}

	retry, err := svc.RevealContact(context.Background(), req)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retry.Status != domain.RevealStatusRevealed {
		t.Fatalf("expected revealed on retry, got %s", retry.Status)
	}
	if retry.TokenBalance != 4 {
		t.Fatalf("expected exactly one debit across failure and retry, balance %d", retry.TokenBalance)
	}
}

func TestResultsRequireCustomerIDForCustomerActor(t *testing.T) {
	svc, _ := newTestService()
	quoteID, _ := approvedQuote(t, svc)

	ctx := WithActor(context.Background(), domain.Actor{Username: "customer", Role: domain.RoleCustomer})
	_, err := svc.Results(ctx, "", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 0)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation without a customer id, got %v", err)
	}

	if _, err := svc.Results(ctx, "cust-adi", quoteID, ranking.ModeByItemArea, ranking.PolicyBucketed, 0); err != nil {
		t.Fatalf("results with the owning customer id failed: %v", err)
	}
}

func TestRevealRequiresCustomerIDForCustomerActor(t *testing.T) {
	svc, repo := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	ctx := WithActor(context.Background(), domain.Actor{Username: "customer", Role: domain.RoleCustomer})
	_, err := svc.RevealContact(ctx, domain.RevealRequest{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: "sup-berkah",
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation without a customer id, got %v", err)
	}

	balance, err := repo.GetTokenBalance(context.Background(), "cust-adi")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance != 5 {
		t.Fatalf("rejected reveal must not debit, balance went to %d", balance)
	}
}

func TestRevealFailsOnEmptyBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := adminCtx()

	quote, err := svc.CreateQuote(ctx, domain.QuoteCreateRequest{
		CustomerID: "cust-buana",
		AreaCodes:  []string{"JKT"},
	})
	if err != nil {
		t.Fatalf("create quote failed: %v", err)
	}
	item, err := svc.AddQuoteItem(ctx, quote.ID, domain.QuoteItemCreateRequest{
		CategoryCode: "CAT-TOOL",
		ProductName:  "Palu Besi",
		Unit:         "pcs",
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if _, err := svc.UpdateQuoteStatus(ctx, quote.ID, "approved", "admin"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = svc.RevealContact(context.Background(), domain.RevealRequest{
		QuoteID:    quote.ID,
		GroupKey:   item.ID,
		SupplierID: "sup-berkah",
	})
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

func TestSupplierContactHiddenWithoutReveal(t *testing.T) {
	svc, _ := newTestService()
	quoteID, itemID := approvedQuote(t, svc)

	contact, err := svc.SupplierContact(context.Background(), "sup-berkah", quoteID, itemID)
	if err != nil {
		t.Fatalf("supplier contact failed: %v", err)
	}
	if contact.Revealed || contact.Contact != nil {
		t.Fatalf("expected contact hidden, got %+v", contact)
	}
}

func TestSupplierDirectoryOmitsContactFields(t *testing.T) {
	svc, _ := newTestService()

	suppliers, err := svc.ListSuppliers(context.Background())
	if err != nil {
		t.Fatalf("list suppliers failed: %v", err)
	}
	if len(suppliers) == 0 {
		t.Fatalf("expected seeded suppliers")
	}
	for _, sup := range suppliers {
		if sup.Email != "" || sup.Phone != "" || sup.Address != "" {
			t.Fatalf("supplier %s leaks contact fields in the directory", sup.ID)
		}
	}
}

func TestSupplierInboxJoinsCurrentResponse(t *testing.T) {
	svc, _ := newTestService()
	_, itemID := approvedQuote(t, svc)

	if _, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-berkah",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       28000,
	}); err != nil {
		t.Fatalf("submit response failed: %v", err)
	}
	if _, err := svc.SubmitResponse(context.Background(), domain.ResponseCreateRequest{
		ItemID:      itemID,
		SupplierID:  "sup-berkah",
		ProductName: "Palu Besi",
		Quantity:    10,
		Price:       26000,
	}); err != nil {
		t.Fatalf("second submit failed: %v", err)
	}

	entries, err := svc.SupplierInbox(context.Background(), "sup-berkah", 0)
	if err != nil {
		t.Fatalf("inbox failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 inbox entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.ItemID != itemID || entry.CustomerName != "Adi Konstruksi" {
		t.Fatalf("unexpected inbox entry: %+v", entry)
	}
	if entry.Response == nil || entry.Response.Price != 26000 {
		t.Fatalf("expected the latest response joined, got %+v", entry.Response)
	}
}

func TestAddTokensRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	req := domain.TokenMutationRequest{UserID: "cust-buana", Amount: 3, Reason: "topup"}

	_, err := svc.AddTokens(context.Background(), req)
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("expected ErrForbidden without an admin actor, got %v", err)
	}

	resp, err := svc.AddTokens(adminCtx(), req)
	if err != nil {
		t.Fatalf("add tokens failed: %v", err)
	}
	if resp.TokenBalance != 3 {
		t.Fatalf("expected balance 3, got %d", resp.TokenBalance)
	}
}

func TestConsumeTokensCannotGoNegative(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ConsumeTokens(context.Background(), domain.TokenMutationRequest{
		UserID: "cust-adi",
		Amount: 10,
		Reason: "bulk",
	})
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	balance, err := svc.TokenBalance(context.Background(), "cust-adi")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance.TokenBalance != 5 {
		t.Fatalf("expected balance untouched at 5, got %d", balance.TokenBalance)
	}
}

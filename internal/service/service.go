package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/metrics"
	"smartquote/backend/internal/ranking"
	"smartquote/backend/internal/store"
	"smartquote/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	engine     *ranking.Engine
	metrics    *metrics.Registry
	revealCost int
}

func New(repo store.Repository, engine *ranking.Engine, reg *metrics.Registry, revealCost int) *Service {
	if engine == nil {
		engine = ranking.NewEngine(nil, 0)
	}
	if revealCost < 1 {
		revealCost = 1
	}

	return &Service{
		repo:       repo,
		engine:     engine,
		metrics:    reg,
		revealCost: revealCost,
	}
}

func (s *Service) ListAreas(ctx context.Context) ([]domain.Area, error) {
	return s.repo.ListAreas(ctx)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) ListSubcategories(ctx context.Context, categoryCode string) ([]domain.Subcategory, error) {
	return s.repo.ListSubcategories(ctx, strings.TrimSpace(categoryCode))
}

func (s *Service) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	return s.repo.ListUnits(ctx)
}

// ListSuppliers returns directory rows with contact fields blanked; contact
// details only leave the system through the reveal flow.
func (s *Service) ListSuppliers(ctx context.Context) ([]domain.SupplierProfile, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range suppliers {
		suppliers[i].Email = ""
		suppliers[i].Phone = ""
		suppliers[i].Address = ""
		suppliers[i].OfficePhone = ""
	}
	return suppliers, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) CreateQuote(ctx context.Context, req domain.QuoteCreateRequest) (domain.QuoteRequest, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" || len(req.AreaCodes) == 0 {
		return domain.QuoteRequest{}, store.ErrValidation
	}

	areaCodes := make([]string, 0, len(req.AreaCodes))
	seen := make(map[string]struct{}, len(req.AreaCodes))
	for _, code := range req.AreaCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			return domain.QuoteRequest{}, store.ErrValidation
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		areaCodes = append(areaCodes, code)
	}

	createdBy := strings.TrimSpace(req.CreatedBy)
	if actor, ok := ActorFromContext(ctx); ok && createdBy == "" {
		createdBy = actor.Username
	}

	quote := domain.QuoteRequest{
		ID:         xid.New("sq"),
		CustomerID: req.CustomerID,
		AreaCodes:  areaCodes,
		Status:     domain.QuoteStatusWaitForApproval,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.CreateQuote(ctx, quote)
	if err != nil {
		return domain.QuoteRequest{}, err
	}
	s.metrics.QuoteCreated()
	return *created, nil
}

func (s *Service) GetQuote(ctx context.Context, quoteID string) (domain.QuoteRequest, error) {
	quote, err := s.repo.GetQuoteByID(ctx, strings.TrimSpace(quoteID))
	if err != nil {
		return domain.QuoteRequest{}, err
	}
	return *quote, nil
}

func (s *Service) ListQuotes(ctx context.Context, customerID string, status string, limit int) ([]domain.QuoteRequest, error) {
	return s.repo.ListQuotesByCustomer(ctx, strings.TrimSpace(customerID), strings.TrimSpace(status), limit)
}

// AddQuoteItem appends a line to a quote that has not been approved yet.
// Items on approved or rejected quotes are frozen.
func (s *Service) AddQuoteItem(ctx context.Context, quoteID string, req domain.QuoteItemCreateRequest) (domain.RequestedItem, error) {
	quote, err := s.repo.GetQuoteByID(ctx, strings.TrimSpace(quoteID))
	if err != nil {
		return domain.RequestedItem{}, err
	}
	if quote.Status != domain.QuoteStatusWaitForApproval {
		return domain.RequestedItem{}, fmt.Errorf("quote %s is %s: %w", quote.ID, quote.Status, store.ErrForbidden)
	}

	req.CategoryCode = strings.TrimSpace(req.CategoryCode)
	req.ProductName = strings.TrimSpace(req.ProductName)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.CategoryCode == "" || req.ProductName == "" || req.Unit == "" || req.Quantity < 1 {
		return domain.RequestedItem{}, store.ErrValidation
	}
	if _, err := s.repo.GetCategory(ctx, req.CategoryCode); err != nil {
		return domain.RequestedItem{}, err
	}

	item := domain.RequestedItem{
		ID:              xid.New("itm"),
		QuoteID:         quote.ID,
		CategoryCode:    req.CategoryCode,
		SubcategoryCode: strings.TrimSpace(req.SubcategoryCode),
		ProductName:     req.ProductName,
		Unit:            req.Unit,
		Size:            strings.TrimSpace(req.Size),
		Quantity:        req.Quantity,
		Note:            strings.TrimSpace(req.Note),
		CreatedAt:       time.Now().UTC(),
	}

	created, err := s.repo.AddQuoteItem(ctx, item)
	if err != nil {
		return domain.RequestedItem{}, err
	}
	return *created, nil
}

// UpdateQuoteStatus drives the one-way lifecycle. Approval fans requests out
// to suppliers; repeating an approval re-runs the fan-out and creates nothing
// new when every record already exists. Rejected quotes stay rejected.
func (s *Service) UpdateQuoteStatus(ctx context.Context, quoteID string, status string, updatedBy string) (domain.QuoteStatusUpdateResponse, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != domain.QuoteStatusApproved && status != domain.QuoteStatusRejected {
		return domain.QuoteStatusUpdateResponse{}, store.ErrValidation
	}

	quote, err := s.repo.GetQuoteByID(ctx, strings.TrimSpace(quoteID))
	if err != nil {
		return domain.QuoteStatusUpdateResponse{}, err
	}

	switch quote.Status {
	case domain.QuoteStatusWaitForApproval:
	case domain.QuoteStatusApproved:
		if status != domain.QuoteStatusApproved {
			return domain.QuoteStatusUpdateResponse{}, fmt.Errorf("quote %s already approved: %w", quote.ID, store.ErrForbidden)
		}
		// Re-approval: idempotent distribution retry, no status write.
		created, err := s.distribute(ctx, quote)
		if err != nil {
			return domain.QuoteStatusUpdateResponse{}, err
		}
		return domain.QuoteStatusUpdateResponse{QuoteID: quote.ID, Status: quote.Status, Distributions: created}, nil
	default:
		return domain.QuoteStatusUpdateResponse{}, fmt.Errorf("quote %s is %s: %w", quote.ID, quote.Status, store.ErrForbidden)
	}

	if updatedBy == "" {
		if actor, ok := ActorFromContext(ctx); ok {
			updatedBy = actor.Username
		}
	}

	updated, err := s.repo.UpdateQuoteStatus(ctx, quote.ID, status, updatedBy)
	if err != nil {
		return domain.QuoteStatusUpdateResponse{}, err
	}

	result := domain.QuoteStatusUpdateResponse{QuoteID: updated.ID, Status: updated.Status}
	if status == domain.QuoteStatusApproved {
		s.metrics.QuoteApproved()
		created, err := s.distribute(ctx, updated)
		if err != nil {
			return domain.QuoteStatusUpdateResponse{}, err
		}
		result.Distributions = created
	}
	return result, nil
}

// distribute upserts one record per (item, quote area, supplier serving that
// area). Records that already exist are skipped, which makes concurrent and
// repeated approvals converge on the same set.
func (s *Service) distribute(ctx context.Context, quote *domain.QuoteRequest) (int, error) {
	created := 0
	for _, areaCode := range quote.AreaCodes {
		suppliers, err := s.repo.ListSuppliersByArea(ctx, areaCode)
		if err != nil {
			return created, err
		}
		for _, item := range quote.Items {
			for _, sup := range suppliers {
				inserted, err := s.repo.UpsertDistribution(ctx, domain.DistributionRecord{
					ID:         xid.New("dst"),
					QuoteID:    quote.ID,
					ItemID:     item.ID,
					AreaCode:   areaCode,
					SupplierID: sup.ID,
					CreatedAt:  time.Now().UTC(),
				})
				if err != nil {
					return created, err
				}
				if inserted {
					created++
				}
			}
		}
	}
	s.metrics.DistributionsMade(created)
	return created, nil
}

// SubmitResponse accepts a supplier offer against a distributed item. The
// area may be omitted, in which case it is inferred from the supplier's most
// recent distribution for that item. Offers without any distribution record
// are refused.
func (s *Service) SubmitResponse(ctx context.Context, req domain.ResponseCreateRequest) (domain.SupplierResponse, error) {
	req.ItemID = strings.TrimSpace(req.ItemID)
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	req.AreaCode = strings.TrimSpace(req.AreaCode)
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ItemID == "" || req.SupplierID == "" || req.ProductName == "" {
		return domain.SupplierResponse{}, store.ErrValidation
	}
	if req.Quantity < 1 || req.Price < 1 {
		return domain.SupplierResponse{}, store.ErrValidation
	}

	item, err := s.repo.GetQuoteItemByID(ctx, req.ItemID)
	if err != nil {
		return domain.SupplierResponse{}, err
	}
	quote, err := s.repo.GetQuoteByID(ctx, item.QuoteID)
	if err != nil {
		return domain.SupplierResponse{}, err
	}
	if quote.Status != domain.QuoteStatusApproved {
		return domain.SupplierResponse{}, fmt.Errorf("quote %s is %s: %w", quote.ID, quote.Status, store.ErrForbidden)
	}

	if req.AreaCode == "" {
		latest, err := s.repo.LatestDistributionForSupplierItem(ctx, req.SupplierID, req.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.SupplierResponse{}, fmt.Errorf("supplier %s was not notified about item %s: %w", req.SupplierID, req.ItemID, store.ErrForbidden)
			}
			return domain.SupplierResponse{}, err
		}
		req.AreaCode = latest.AreaCode
	} else {
		if _, err := s.repo.FindDistribution(ctx, req.ItemID, req.AreaCode, req.SupplierID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.SupplierResponse{}, fmt.Errorf("supplier %s was not notified about item %s in %s: %w", req.SupplierID, req.ItemID, req.AreaCode, store.ErrForbidden)
			}
			return domain.SupplierResponse{}, err
		}
	}

	response := domain.SupplierResponse{
		ID:           xid.New("rsp"),
		ItemID:       item.ID,
		QuoteID:      quote.ID,
		SupplierID:   req.SupplierID,
		AreaCode:     req.AreaCode,
		CategoryCode: item.CategoryCode,
		ProductName:  req.ProductName,
		Quantity:     req.Quantity,
		Price:        req.Price,
		Note:         strings.TrimSpace(req.Note),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.CreateResponse(ctx, response)
	if err != nil {
		return domain.SupplierResponse{}, err
	}
	s.metrics.ResponseSubmitted()
	return *created, nil
}

// Results ranks every approved quote of a customer, or a single quote when
// quoteID is set. Customer-role callers must always name their customer id
// so the ownership check against the quote runs. Candidates from unrevealed
// suppliers keep their supplier id (needed to buy the reveal) but carry no
// supplier name or contact.
func (s *Service) Results(ctx context.Context, customerID string, quoteID string, mode ranking.Mode, policy ranking.Policy, topN int) (domain.RankingResponse, error) {
	customerID = strings.TrimSpace(customerID)
	quoteID = strings.TrimSpace(quoteID)
	if customerID == "" && quoteID == "" {
		return domain.RankingResponse{}, store.ErrValidation
	}
	if actor, ok := ActorFromContext(ctx); ok && actor.Role == domain.RoleCustomer && customerID == "" {
		return domain.RankingResponse{}, fmt.Errorf("customer_id is required for customer accounts: %w", store.ErrValidation)
	}
	if topN != 0 && topN != 3 && topN != 10 {
		return domain.RankingResponse{}, store.ErrValidation
	}

	var quotes []domain.QuoteRequest
	if quoteID != "" {
		quote, err := s.repo.GetQuoteByID(ctx, quoteID)
		if err != nil {
			return domain.RankingResponse{}, err
		}
		if customerID != "" && quote.CustomerID != customerID {
			return domain.RankingResponse{}, fmt.Errorf("quote %s does not belong to customer %s: %w", quote.ID, customerID, store.ErrForbidden)
		}
		quotes = []domain.QuoteRequest{*quote}
	} else {
		var err error
		quotes, err = s.repo.ListQuotesByCustomer(ctx, customerID, domain.QuoteStatusApproved, 0)
		if err != nil {
			return domain.RankingResponse{}, err
		}
	}

	labels, err := s.loadLabels(ctx)
	if err != nil {
		return domain.RankingResponse{}, err
	}

	results := make([]domain.RankedCandidate, 0, 64)
	for _, quote := range quotes {
		if quote.Status != domain.QuoteStatusApproved {
			continue
		}
		responses, err := s.repo.ListResponsesByQuote(ctx, quote.ID)
		if err != nil {
			return domain.RankingResponse{}, err
		}
		ranked := s.engine.Rank(ctx, ranking.Request{
			QuoteID:   quote.ID,
			Mode:      mode,
			Policy:    policy,
			TopN:      topN,
			Items:     quote.Items,
			Responses: responses,
		})
		s.metrics.RankingComputed()

		revealed, err := s.repo.ListRevealedSuppliers(ctx, quote.ID)
		if err != nil {
			return domain.RankingResponse{}, err
		}
		for i := range ranked {
			cand := &ranked[i]
			cand.AreaName = labels.areas[cand.AreaCode]
			cand.CategoryName = labels.categories[cand.CategoryCode]
			cand.ContactRevealed = revealed[cand.GroupKey+"|"+cand.SupplierID]
			if cand.ContactRevealed {
				cand.SupplierName = labels.suppliers[cand.SupplierID]
			}
		}
		results = append(results, ranked...)
	}

	return domain.RankingResponse{
		Mode:    string(mode),
		Policy:  string(policy),
		TopN:    topN,
		Results: results,
	}, nil
}

// RevealContact debits one reveal's worth of tokens and unlocks a supplier
// for a product group. Calling it again is free. The debit and its charge
// record land in one repository call, and a charge that landed without the
// final unlock is completed here instead of charging twice.
func (s *Service) RevealContact(ctx context.Context, req domain.RevealRequest) (domain.RevealResponse, error) {
	req.QuoteID = strings.TrimSpace(req.QuoteID)
	req.GroupKey = strings.TrimSpace(req.GroupKey)
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	if req.QuoteID == "" || req.GroupKey == "" || req.SupplierID == "" {
		return domain.RevealResponse{}, store.ErrValidation
	}

	quote, err := s.repo.GetQuoteByID(ctx, req.QuoteID)
	if err != nil {
		return domain.RevealResponse{}, err
	}
	if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
		return domain.RevealResponse{}, err
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if actor, ok := ActorFromContext(ctx); ok && actor.Role == domain.RoleCustomer && customerID == "" {
		return domain.RevealResponse{}, fmt.Errorf("customer_id is required for customer accounts: %w", store.ErrValidation)
	}
	if customerID == "" {
		customerID = quote.CustomerID
	}
	if customerID != quote.CustomerID {
		return domain.RevealResponse{}, fmt.Errorf("quote %s does not belong to customer %s: %w", quote.ID, customerID, store.ErrForbidden)
	}

	purchase, err := s.repo.GetRevealPurchase(ctx, req.QuoteID, req.GroupKey, req.SupplierID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.RevealResponse{}, err
	}

	if purchase != nil && purchase.Revealed {
		balance, err := s.repo.GetTokenBalance(ctx, customerID)
		if err != nil {
			return domain.RevealResponse{}, err
		}
		return domain.RevealResponse{Status: domain.RevealStatusAlreadyRevealed, TokenBalance: balance}, nil
	}

	now := time.Now().UTC()
	if purchase == nil || !purchase.Charged {
		charged := domain.RevealPurchase{
			QuoteID:    req.QuoteID,
			GroupKey:   req.GroupKey,
			SupplierID: req.SupplierID,
			CustomerID: customerID,
			Charged:    true,
			ChargedAt:  now,
		}
		_, err := s.repo.ChargeReveal(ctx, domain.TokenEntry{
			UserID: customerID,
			Amount: -s.revealCost,
			Reason: "reveal:" + req.QuoteID + ":" + req.GroupKey + ":" + req.SupplierID,
		}, charged)
		if err != nil {
			if errors.Is(err, store.ErrInsufficientTokens) {
				s.metrics.InsufficientFunds()
			}
			return domain.RevealResponse{}, err
		}
		s.metrics.TokenDebit()
		purchase = &charged
	}

	purchase.Revealed = true
	purchase.RevealedAt = now
	if err := s.repo.SaveRevealPurchase(ctx, *purchase); err != nil {
		log.Printf("[service] charge recorded but reveal mark failed quote=%s group=%s supplier=%s: %v", req.QuoteID, req.GroupKey, req.SupplierID, err)
		return domain.RevealResponse{}, fmt.Errorf("reveal for quote %s charged but not completed: %w", req.QuoteID, store.ErrInconsistentState)
	}
	s.metrics.ContactRevealed()

	balance, err := s.repo.GetTokenBalance(ctx, customerID)
	if err != nil {
		return domain.RevealResponse{}, err
	}
	return domain.RevealResponse{Status: domain.RevealStatusRevealed, TokenBalance: balance}, nil
}

// SupplierContact returns full contact details only when the reveal for the
// given (quote, group, supplier) has been paid for.
func (s *Service) SupplierContact(ctx context.Context, supplierID string, quoteID string, groupKey string) (domain.SupplierContactResponse, error) {
	supplierID = strings.TrimSpace(supplierID)
	quoteID = strings.TrimSpace(quoteID)
	groupKey = strings.TrimSpace(groupKey)
	if supplierID == "" || quoteID == "" || groupKey == "" {
		return domain.SupplierContactResponse{}, store.ErrValidation
	}

	purchase, err := s.repo.GetRevealPurchase(ctx, quoteID, groupKey, supplierID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SupplierContactResponse{Revealed: false}, nil
		}
		return domain.SupplierContactResponse{}, err
	}
	if !purchase.Revealed {
		return domain.SupplierContactResponse{Revealed: false}, nil
	}

	supplier, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		return domain.SupplierContactResponse{}, err
	}
	return domain.SupplierContactResponse{Revealed: true, Contact: supplier}, nil
}

// SupplierInbox lists what a supplier was asked to quote, newest first, each
// entry joined with the supplier's current response when one exists.
func (s *Service) SupplierInbox(ctx context.Context, supplierID string, limit int) ([]domain.SupplierInboxEntry, error) {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return nil, store.ErrValidation
	}
	if _, err := s.repo.GetSupplier(ctx, supplierID); err != nil {
		return nil, err
	}

	records, err := s.repo.ListDistributionsBySupplier(ctx, supplierID, limit)
	if err != nil {
		return nil, err
	}

	labels, err := s.loadLabels(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SupplierInboxEntry, 0, len(records))
	for _, record := range records {
		item, err := s.repo.GetQuoteItemByID(ctx, record.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		quote, err := s.repo.GetQuoteByID(ctx, record.QuoteID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}

		entry := domain.SupplierInboxEntry{
			DistributionID: record.ID,
			QuoteID:        record.QuoteID,
			ItemID:         record.ItemID,
			CustomerID:     quote.CustomerID,
			CustomerName:   labels.customers[quote.CustomerID],
			AreaCode:       record.AreaCode,
			AreaName:       labels.areas[record.AreaCode],
			CategoryCode:   item.CategoryCode,
			CategoryName:   labels.categories[item.CategoryCode],
			RequestedName:  item.ProductName,
			Size:           item.Size,
			Unit:           item.Unit,
			RequestedQty:   item.Quantity,
			RequestedNote:  item.Note,
			DistributedAt:  record.CreatedAt,
		}

		if resp, err := s.repo.LatestResponseForDistribution(ctx, record.ItemID, supplierID); err == nil {
			entry.Response = resp
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) TokenBalance(ctx context.Context, userID string) (domain.TokenBalanceResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.TokenBalanceResponse{}, store.ErrValidation
	}
	balance, err := s.repo.GetTokenBalance(ctx, userID)
	if err != nil {
		return domain.TokenBalanceResponse{}, err
	}
	return domain.TokenBalanceResponse{UserID: userID, TokenBalance: balance}, nil
}

// AddTokens credits a user's ledger. Admin only; this is the top-up hook a
// payment callback would call.
func (s *Service) AddTokens(ctx context.Context, req domain.TokenMutationRequest) (domain.TokenBalanceResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.TokenBalanceResponse{}, fmt.Errorf("admin role required: %w", store.ErrForbidden)
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Amount < 1 {
		return domain.TokenBalanceResponse{}, store.ErrValidation
	}

	entry, err := s.repo.AppendTokenEntry(ctx, domain.TokenEntry{
		UserID: req.UserID,
		Amount: req.Amount,
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return domain.TokenBalanceResponse{}, err
	}
	return domain.TokenBalanceResponse{UserID: req.UserID, TokenBalance: entry.BalanceAfter}, nil
}

// ConsumeTokens debits a user's ledger directly. A debit below zero fails
// with ErrInsufficientTokens and leaves the balance untouched.
func (s *Service) ConsumeTokens(ctx context.Context, req domain.TokenMutationRequest) (domain.TokenBalanceResponse, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.Amount < 1 {
		return domain.TokenBalanceResponse{}, store.ErrValidation
	}

	entry, err := s.repo.AppendTokenEntry(ctx, domain.TokenEntry{
		UserID: req.UserID,
		Amount: -req.Amount,
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientTokens) {
			s.metrics.InsufficientFunds()
		}
		return domain.TokenBalanceResponse{}, err
	}
	s.metrics.TokenDebit()
	return domain.TokenBalanceResponse{UserID: req.UserID, TokenBalance: entry.BalanceAfter}, nil
}

type labelSet struct {
	areas      map[string]string
	categories map[string]string
	suppliers  map[string]string
	customers  map[string]string
}

func (s *Service) loadLabels(ctx context.Context) (labelSet, error) {
	labels := labelSet{
		areas:      make(map[string]string),
		categories: make(map[string]string),
		suppliers:  make(map[string]string),
		customers:  make(map[string]string),
	}

	areas, err := s.repo.ListAreas(ctx)
	if err != nil {
		return labelSet{}, err
	}
	for _, a := range areas {
		labels.areas[a.Code] = a.Name
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return labelSet{}, err
	}
	for _, c := range categories {
		labels.categories[c.Code] = c.Name
	}

	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return labelSet{}, err
	}
	for _, sup := range suppliers {
		labels.suppliers[sup.ID] = sup.Name
	}

	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return labelSet{}, err
	}
	for _, c := range customers {
		labels.customers[c.ID] = c.Name
	}

	return labels, nil
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/store"
)

func TestChargeRevealWritesDebitAndPurchaseTogether(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	entry, err := s.ChargeReveal(ctx, domain.TokenEntry{
		UserID: "cust-adi",
		Amount: -1,
		Reason: "reveal:sq-1:itm-1:sup-berkah",
	}, domain.RevealPurchase{
		QuoteID:    "sq-1",
		GroupKey:   "itm-1",
		SupplierID: "sup-berkah",
		CustomerID: "cust-adi",
		Charged:    true,
		ChargedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("charge failed: %v", err)
	}
	if entry.BalanceAfter != 4 {
		t.Fatalf("expected balance 4 after debit from the seeded 5, got %d", entry.BalanceAfter)
	}

	purchase, err := s.GetRevealPurchase(ctx, "sq-1", "itm-1", "sup-berkah")
	if err != nil {
		t.Fatalf("purchase lookup failed: %v", err)
	}
	if !purchase.Charged {
		t.Fatalf("expected charged purchase, got %+v", purchase)
	}
}

func TestChargeRevealOnEmptyBalanceWritesNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.ChargeReveal(ctx, domain.TokenEntry{
		UserID: "cust-buana",
		Amount: -1,
		Reason: "reveal:sq-1:itm-1:sup-berkah",
	}, domain.RevealPurchase{
		QuoteID:    "sq-1",
		GroupKey:   "itm-1",
		SupplierID: "sup-berkah",
		CustomerID: "cust-buana",
		Charged:    true,
		ChargedAt:  time.Now().UTC(),
	})
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	if _, err := s.GetRevealPurchase(ctx, "sq-1", "itm-1", "sup-berkah"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("refused charge must not record a purchase, got %v", err)
	}
}

func TestChargeRevealValidatesPurchaseBeforeDebiting(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	_, err := s.ChargeReveal(ctx, domain.TokenEntry{
		UserID: "cust-adi",
		Amount: -1,
	}, domain.RevealPurchase{
		QuoteID:    "sq-1",
		SupplierID: "sup-berkah",
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	balance, err := s.GetTokenBalance(ctx, "cust-adi")
	if err != nil {
		t.Fatalf("balance lookup failed: %v", err)
	}
	if balance != 5 {
		t.Fatalf("invalid purchase must not debit, balance went to %d", balance)
	}
}

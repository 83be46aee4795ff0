package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/store"
)

func TestDistributionUpsertAndTokenLedger(t *testing.T) {
	databaseURL := os.Getenv("SMARTQUOTE_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SMARTQUOTE_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	areaCode := fmt.Sprintf("IT-%d", stamp%100000)
	categoryCode := fmt.Sprintf("CAT-IT-%d", stamp)
	customerID := fmt.Sprintf("cust-it-%d", stamp)
	supplierID := fmt.Sprintf("sup-it-%d", stamp)
	quoteID := fmt.Sprintf("sq-it-%d", stamp)
	itemID := fmt.Sprintf("itm-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM token_ledger WHERE user_id = $1`, customerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM reveal_purchases WHERE quote_id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM distributions WHERE quote_id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM quote_areas WHERE quote_id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM quote_requests WHERE id = $1`, quoteID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM supplier_areas WHERE supplier_id = $1`, supplierID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, supplierID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, customerID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM categories WHERE code = $1`, categoryCode)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM areas WHERE code = $1`, areaCode)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO areas (code, name) VALUES ($1, 'Kota Integrasi')
	`, areaCode); err != nil {
		t.Fatalf("insert area: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (code, name) VALUES ($1, 'Kategori Integrasi')
	`, categoryCode); err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, created_at) VALUES ($1, 'Pelanggan Integrasi', now())
	`, customerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, email, phone, address, office_phone, created_at)
		VALUES ($1, 'Pemasok Integrasi', 'it@supplier.example', '+62-800-0000', 'Jl. Uji 1', null, now())
	`, supplierID); err != nil {
		t.Fatalf("insert supplier: %v", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO supplier_areas (supplier_id, area_code) VALUES ($1, $2)
	`, supplierID, areaCode); err != nil {
		t.Fatalf("insert supplier area: %v", err)
	}

	if _, err := s.CreateQuote(ctx, domain.QuoteRequest{
		ID:         quoteID,
		CustomerID: customerID,
		AreaCodes:  []string{areaCode},
		CreatedBy:  "integration",
	}); err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if _, err := s.AddQuoteItem(ctx, domain.RequestedItem{
		ID:           itemID,
		QuoteID:      quoteID,
		CategoryCode: categoryCode,
		ProductName:  "Barang Integrasi",
		Unit:         "pcs",
		Quantity:     3,
	}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	record := domain.DistributionRecord{
		QuoteID:    quoteID,
		ItemID:     itemID,
		AreaCode:   areaCode,
		SupplierID: supplierID,
	}
	created, err := s.UpsertDistribution(ctx, record)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatalf("expected first upsert to insert")
	}
	created, err = s.UpsertDistribution(ctx, record)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatalf("expected second upsert to be a no-op")
	}

	if _, err := s.AppendTokenEntry(ctx, domain.TokenEntry{
		UserID: customerID,
		Amount: 2,
		Reason: "integration credit",
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}
	debit, err := s.AppendTokenEntry(ctx, domain.TokenEntry{
		UserID: customerID,
		Amount: -1,
		Reason: "integration debit",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if debit.BalanceAfter != 1 {
		t.Fatalf("expected balance 1 after debit, got %d", debit.BalanceAfter)
	}

	_, err = s.AppendTokenEntry(ctx, domain.TokenEntry{
		UserID: customerID,
		Amount: -5,
		Reason: "integration overdraft",
	})
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}

	balance, err := s.GetTokenBalance(ctx, customerID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 1 {
		t.Fatalf("expected balance 1, got %d", balance)
	}

	charge, err := s.ChargeReveal(ctx, domain.TokenEntry{
		UserID: customerID,
		Amount: -1,
		Reason: "reveal:" + quoteID + ":" + itemID + ":" + supplierID,
	}, domain.RevealPurchase{
		QuoteID:    quoteID,
		GroupKey:   itemID,
		SupplierID: supplierID,
		CustomerID: customerID,
		Charged:    true,
		ChargedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("charge reveal: %v", err)
	}
	if charge.BalanceAfter != 0 {
		t.Fatalf("expected balance 0 after reveal charge, got %d", charge.BalanceAfter)
	}
	purchase, err := s.GetRevealPurchase(ctx, quoteID, itemID, supplierID)
	if err != nil {
		t.Fatalf("purchase lookup: %v", err)
	}
	if !purchase.Charged {
		t.Fatalf("expected charged purchase, got %+v", purchase)
	}

	otherGroup := itemID + "-other"
	_, err = s.ChargeReveal(ctx, domain.TokenEntry{
		UserID: customerID,
		Amount: -1,
		Reason: "reveal:" + quoteID + ":" + otherGroup + ":" + supplierID,
	}, domain.RevealPurchase{
		QuoteID:    quoteID,
		GroupKey:   otherGroup,
		SupplierID: supplierID,
		CustomerID: customerID,
		Charged:    true,
		ChargedAt:  time.Now().UTC(),
	})
	if !errors.Is(err, store.ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens on empty balance, got %v", err)
	}
	if _, err := s.GetRevealPurchase(ctx, quoteID, otherGroup, supplierID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("refused charge must roll back the purchase row, got %v", err)
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/store"
	"smartquote/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListAreas(ctx context.Context) ([]domain.Area, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name
		FROM areas
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := make([]domain.Area, 0, 32)
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.Code, &a.Name); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return areas, nil
}

func (s *Store) GetArea(ctx context.Context, code string) (*domain.Area, error) {
	var area domain.Area
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name
		FROM areas
		WHERE code = $1
	`, code).Scan(&area.Code, &area.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name
		FROM categories
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 32)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, code string) (*domain.Category, error) {
	var category domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name
		FROM categories
		WHERE code = $1
	`, code).Scan(&category.Code, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) ListSubcategories(ctx context.Context, categoryCode string) ([]domain.Subcategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, category_code, name
		FROM subcategories
		WHERE $1 = '' OR category_code = $1
		ORDER BY code
	`, categoryCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subcategories := make([]domain.Subcategory, 0, 32)
	for rows.Next() {
		var sub domain.Subcategory
		if err := rows.Scan(&sub.Code, &sub.CategoryCode, &sub.Name); err != nil {
			return nil, err
		}
		subcategories = append(subcategories, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subcategories, nil
}

func (s *Store) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name
		FROM units
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := make([]domain.Unit, 0, 32)
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.Code, &u.Name); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return units, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.SupplierProfile, error) {
	return s.querySuppliers(ctx, `
		SELECT id, name, email, phone, address, COALESCE(office_phone, ''), created_at
		FROM suppliers
		ORDER BY id
	`)
}

func (s *Store) ListSuppliersByArea(ctx context.Context, areaCode string) ([]domain.SupplierProfile, error) {
	return s.querySuppliers(ctx, `
		SELECT s.id, s.name, s.email, s.phone, s.address, COALESCE(s.office_phone, ''), s.created_at
		FROM suppliers s
		JOIN supplier_areas sa ON sa.supplier_id = s.id
		WHERE sa.area_code = $1
		ORDER BY s.id
	`, areaCode)
}

func (s *Store) querySuppliers(ctx context.Context, query string, args ...any) ([]domain.SupplierProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.SupplierProfile, 0, 32)
	for rows.Next() {
		var sup domain.SupplierProfile
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Email, &sup.Phone, &sup.Address, &sup.OfficePhone, &sup.CreatedAt); err != nil {
			return nil, err
		}
		sup.CreatedAt = sup.CreatedAt.UTC()
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range suppliers {
		areaCodes, err := s.supplierAreas(ctx, suppliers[i].ID)
		if err != nil {
			return nil, err
		}
		suppliers[i].AreaCodes = areaCodes
	}
	return suppliers, nil
}

func (s *Store) supplierAreas(ctx context.Context, supplierID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT area_code
		FROM supplier_areas
		WHERE supplier_id = $1
		ORDER BY area_code
	`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]string, 0, 4)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, supplierID string) (*domain.SupplierProfile, error) {
	var sup domain.SupplierProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, COALESCE(office_phone, ''), created_at
		FROM suppliers
		WHERE id = $1
	`, supplierID).Scan(&sup.ID, &sup.Name, &sup.Email, &sup.Phone, &sup.Address, &sup.OfficePhone, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sup.CreatedAt = sup.CreatedAt.UTC()

	areaCodes, err := s.supplierAreas(ctx, sup.ID)
	if err != nil {
		return nil, err
	}
	sup.AreaCodes = areaCodes
	return &sup, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM customers
		WHERE id = $1
	`, customerID).Scan(&customer.ID, &customer.Name, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	customer.CreatedAt = customer.CreatedAt.UTC()
	return &customer, nil
}

func (s *Store) CreateQuote(ctx context.Context, quote domain.QuoteRequest) (*domain.QuoteRequest, error) {
	if quote.CustomerID == "" || len(quote.AreaCodes) == 0 {
		return nil, store.ErrValidation
	}
	if quote.ID == "" {
		quote.ID = xid.New("sq")
	}
	if quote.Status == "" {
		quote.Status = domain.QuoteStatusWaitForApproval
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now().UTC()
	}
	quote.UpdatedAt = quote.CreatedAt
	quote.Items = nil

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO quote_requests (id, customer_id, status, created_by, created_at, updated_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,'',$5)
	`, quote.ID, quote.CustomerID, quote.Status, quote.CreatedBy, quote.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	for _, code := range quote.AreaCodes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO quote_areas (quote_id, area_code)
			VALUES ($1,$2)
			ON CONFLICT (quote_id, area_code) DO NOTHING
		`, quote.ID, code)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := quote
	return &created, nil
}

func (s *Store) GetQuoteByID(ctx context.Context, quoteID string) (*domain.QuoteRequest, error) {
	var quote domain.QuoteRequest
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, created_by, created_at, COALESCE(updated_by, ''), updated_at
		FROM quote_requests
		WHERE id = $1
	`, quoteID).Scan(&quote.ID, &quote.CustomerID, &quote.Status, &quote.CreatedBy, &quote.CreatedAt, &quote.UpdatedBy, &quote.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	quote.CreatedAt = quote.CreatedAt.UTC()
	quote.UpdatedAt = quote.UpdatedAt.UTC()

	if err := s.loadQuoteDetails(ctx, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *Store) loadQuoteDetails(ctx context.Context, quote *domain.QuoteRequest) error {
	areaRows, err := s.db.QueryContext(ctx, `
		SELECT area_code
		FROM quote_areas
		WHERE quote_id = $1
		ORDER BY area_code
	`, quote.ID)
	if err != nil {
		return err
	}
	defer areaRows.Close()

	quote.AreaCodes = make([]string, 0, 4)
	for areaRows.Next() {
		var code string
		if err := areaRows.Scan(&code); err != nil {
			return err
		}
		quote.AreaCodes = append(quote.AreaCodes, code)
	}
	if err := areaRows.Err(); err != nil {
		return err
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, quote_id, category_code, COALESCE(subcategory_code, ''), product_name,
		       unit_code, COALESCE(size, ''), quantity, COALESCE(note, ''), created_at
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY created_at, id
	`, quote.ID)
	if err != nil {
		return err
	}
	defer itemRows.Close()

	quote.Items = make([]domain.RequestedItem, 0, 8)
	for itemRows.Next() {
		var item domain.RequestedItem
		if err := itemRows.Scan(&item.ID, &item.QuoteID, &item.CategoryCode, &item.SubcategoryCode,
			&item.ProductName, &item.Unit, &item.Size, &item.Quantity, &item.Note, &item.CreatedAt); err != nil {
			return err
		}
		item.CreatedAt = item.CreatedAt.UTC()
		quote.Items = append(quote.Items, item)
	}
	return itemRows.Err()
}

func (s *Store) ListQuotesByCustomer(ctx context.Context, customerID string, status string, limit int) ([]domain.QuoteRequest, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, status, created_by, created_at, COALESCE(updated_by, ''), updated_at
		FROM quote_requests
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, customerID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quotes := make([]domain.QuoteRequest, 0, limit)
	for rows.Next() {
		var quote domain.QuoteRequest
		if err := rows.Scan(&quote.ID, &quote.CustomerID, &quote.Status, &quote.CreatedBy,
			&quote.CreatedAt, &quote.UpdatedBy, &quote.UpdatedAt); err != nil {
			return nil, err
		}
		quote.CreatedAt = quote.CreatedAt.UTC()
		quote.UpdatedAt = quote.UpdatedAt.UTC()
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range quotes {
		if err := s.loadQuoteDetails(ctx, &quotes[i]); err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

func (s *Store) UpdateQuoteStatus(ctx context.Context, quoteID string, status string, updatedBy string) (*domain.QuoteRequest, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE quote_requests
		SET status = $2, updated_by = $3, updated_at = now()
		WHERE id = $1
	`, quoteID, status, updatedBy)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetQuoteByID(ctx, quoteID)
}

func (s *Store) AddQuoteItem(ctx context.Context, item domain.RequestedItem) (*domain.RequestedItem, error) {
	if item.QuoteID == "" || item.CategoryCode == "" || strings.TrimSpace(item.ProductName) == "" || item.Quantity < 1 {
		return nil, store.ErrValidation
	}
	if item.ID == "" {
		item.ID = xid.New("itm")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quote_items (id, quote_id, category_code, subcategory_code, product_name, unit_code, size, quantity, note, created_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,NULLIF($7,''),$8,NULLIF($9,''),$10)
	`, item.ID, item.QuoteID, item.CategoryCode, item.SubcategoryCode, item.ProductName,
		item.Unit, item.Size, item.Quantity, item.Note, item.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) GetQuoteItemByID(ctx context.Context, itemID string) (*domain.RequestedItem, error) {
	var item domain.RequestedItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, quote_id, category_code, COALESCE(subcategory_code, ''), product_name,
		       unit_code, COALESCE(size, ''), quantity, COALESCE(note, ''), created_at
		FROM quote_items
		WHERE id = $1
	`, itemID).Scan(&item.ID, &item.QuoteID, &item.CategoryCode, &item.SubcategoryCode,
		&item.ProductName, &item.Unit, &item.Size, &item.Quantity, &item.Note, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func (s *Store) UpsertDistribution(ctx context.Context, record domain.DistributionRecord) (bool, error) {
	if record.QuoteID == "" || record.ItemID == "" || record.AreaCode == "" || record.SupplierID == "" {
		return false, store.ErrValidation
	}
	if record.ID == "" {
		record.ID = xid.New("dst")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO distributions (id, quote_id, item_id, area_code, supplier_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (item_id, area_code, supplier_id) DO NOTHING
	`, record.ID, record.QuoteID, record.ItemID, record.AreaCode, record.SupplierID, record.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, store.ErrNotFound
		}
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) ListDistributionsByQuote(ctx context.Context, quoteID string) ([]domain.DistributionRecord, error) {
	return s.queryDistributions(ctx, `
		SELECT id, quote_id, item_id, area_code, supplier_id, created_at
		FROM distributions
		WHERE quote_id = $1
		ORDER BY id
	`, quoteID)
}

func (s *Store) ListDistributionsBySupplier(ctx context.Context, supplierID string, limit int) ([]domain.DistributionRecord, error) {
	if limit < 1 {
		limit = 100
	}
	return s.queryDistributions(ctx, `
		SELECT id, quote_id, item_id, area_code, supplier_id, created_at
		FROM distributions
		WHERE supplier_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, supplierID, limit)
}

func (s *Store) queryDistributions(ctx context.Context, query string, args ...any) ([]domain.DistributionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.DistributionRecord, 0, 32)
	for rows.Next() {
		var record domain.DistributionRecord
		if err := rows.Scan(&record.ID, &record.QuoteID, &record.ItemID, &record.AreaCode, &record.SupplierID, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.CreatedAt = record.CreatedAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) FindDistribution(ctx context.Context, itemID string, areaCode string, supplierID string) (*domain.DistributionRecord, error) {
	var record domain.DistributionRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, quote_id, item_id, area_code, supplier_id, created_at
		FROM distributions
		WHERE item_id = $1 AND area_code = $2 AND supplier_id = $3
	`, itemID, areaCode, supplierID).Scan(&record.ID, &record.QuoteID, &record.ItemID, &record.AreaCode, &record.SupplierID, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

func (s *Store) LatestDistributionForSupplierItem(ctx context.Context, supplierID string, itemID string) (*domain.DistributionRecord, error) {
	var record domain.DistributionRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, quote_id, item_id, area_code, supplier_id, created_at
		FROM distributions
		WHERE supplier_id = $1 AND item_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, supplierID, itemID).Scan(&record.ID, &record.QuoteID, &record.ItemID, &record.AreaCode, &record.SupplierID, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return &record, nil
}

func (s *Store) CreateResponse(ctx context.Context, response domain.SupplierResponse) (*domain.SupplierResponse, error) {
	if response.ItemID == "" || response.SupplierID == "" || response.AreaCode == "" {
		return nil, store.ErrValidation
	}
	if strings.TrimSpace(response.ProductName) == "" || response.Quantity < 1 || response.Price < 1 {
		return nil, store.ErrValidation
	}
	if response.ID == "" {
		response.ID = xid.New("rsp")
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supplier_responses (id, item_id, quote_id, supplier_id, area_code, category_code, product_name, quantity, price, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),$11)
	`, response.ID, response.ItemID, response.QuoteID, response.SupplierID, response.AreaCode,
		response.CategoryCode, response.ProductName, response.Quantity, response.Price, response.Note, response.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := response
	return &created, nil
}

func (s *Store) ListResponsesByQuote(ctx context.Context, quoteID string) ([]domain.SupplierResponse, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, quote_id, supplier_id, area_code, category_code, product_name, quantity, price, COALESCE(note, ''), created_at
		FROM supplier_responses
		WHERE quote_id = $1
		ORDER BY id
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]domain.SupplierResponse, 0, 64)
	for rows.Next() {
		var resp domain.SupplierResponse
		if err := rows.Scan(&resp.ID, &resp.ItemID, &resp.QuoteID, &resp.SupplierID, &resp.AreaCode,
			&resp.CategoryCode, &resp.ProductName, &resp.Quantity, &resp.Price, &resp.Note, &resp.CreatedAt); err != nil {
			return nil, err
		}
		resp.CreatedAt = resp.CreatedAt.UTC()
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *Store) LatestResponseForDistribution(ctx context.Context, itemID string, supplierID string) (*domain.SupplierResponse, error) {
	var resp domain.SupplierResponse
	err := s.db.QueryRowContext(ctx, `
		SELECT id, item_id, quote_id, supplier_id, area_code, category_code, product_name, quantity, price, COALESCE(note, ''), created_at
		FROM supplier_responses
		WHERE item_id = $1 AND supplier_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, itemID, supplierID).Scan(&resp.ID, &resp.ItemID, &resp.QuoteID, &resp.SupplierID, &resp.AreaCode,
		&resp.CategoryCode, &resp.ProductName, &resp.Quantity, &resp.Price, &resp.Note, &resp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	resp.CreatedAt = resp.CreatedAt.UTC()
	return &resp, nil
}

func (s *Store) GetRevealPurchase(ctx context.Context, quoteID string, groupKey string, supplierID string) (*domain.RevealPurchase, error) {
	var purchase domain.RevealPurchase
	var chargedAt, revealedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT quote_id, group_key, supplier_id, customer_id, charged, revealed, charged_at, revealed_at
		FROM reveal_purchases
		WHERE quote_id = $1 AND group_key = $2 AND supplier_id = $3
	`, quoteID, groupKey, supplierID).Scan(&purchase.QuoteID, &purchase.GroupKey, &purchase.SupplierID,
		&purchase.CustomerID, &purchase.Charged, &purchase.Revealed, &chargedAt, &revealedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if chargedAt.Valid {
		purchase.ChargedAt = chargedAt.Time.UTC()
	}
	if revealedAt.Valid {
		purchase.RevealedAt = revealedAt.Time.UTC()
	}
	return &purchase, nil
}

func (s *Store) SaveRevealPurchase(ctx context.Context, purchase domain.RevealPurchase) error {
	if purchase.QuoteID == "" || purchase.GroupKey == "" || purchase.SupplierID == "" {
		return store.ErrValidation
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reveal_purchases (quote_id, group_key, supplier_id, customer_id, charged, revealed, charged_at, revealed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (quote_id, group_key, supplier_id)
		DO UPDATE SET customer_id = $4, charged = $5, revealed = $6, charged_at = $7, revealed_at = $8
	`, purchase.QuoteID, purchase.GroupKey, purchase.SupplierID, purchase.CustomerID,
		purchase.Charged, purchase.Revealed, nullTime(purchase.ChargedAt), nullTime(purchase.RevealedAt))
	if err != nil && isForeignKeyViolation(err) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) ListRevealedSuppliers(ctx context.Context, quoteID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT group_key, supplier_id
		FROM reveal_purchases
		WHERE quote_id = $1 AND revealed = true
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revealed := make(map[string]bool)
	for rows.Next() {
		var groupKey, supplierID string
		if err := rows.Scan(&groupKey, &supplierID); err != nil {
			return nil, err
		}
		revealed[groupKey+"|"+supplierID] = true
	}
	return revealed, rows.Err()
}

func (s *Store) AppendTokenEntry(ctx context.Context, entry domain.TokenEntry) (*domain.TokenEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := appendTokenEntryTx(ctx, tx, entry)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// appendTokenEntryTx inserts the ledger row inside the caller's transaction
// and returns it with BalanceAfter filled in.
func appendTokenEntryTx(ctx context.Context, tx *sql.Tx, entry domain.TokenEntry) (*domain.TokenEntry, error) {
	if entry.UserID == "" || entry.Amount == 0 {
		return nil, store.ErrValidation
	}
	if entry.ID == "" {
		entry.ID = xid.New("tok")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	balance := 0
	err := tx.QueryRowContext(ctx, `
		SELECT balance_after
		FROM token_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, entry.UserID).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if balance+entry.Amount < 0 {
		return nil, store.ErrInsufficientTokens
	}
	entry.BalanceAfter = balance + entry.Amount

	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_ledger (id, user_id, amount, reason, balance_after, created_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6)
	`, entry.ID, entry.UserID, entry.Amount, entry.Reason, entry.BalanceAfter, entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	created := entry
	return &created, nil
}

// ChargeReveal commits the debit and the charged purchase record in a single
// transaction so a failure rolls back both.
func (s *Store) ChargeReveal(ctx context.Context, entry domain.TokenEntry, purchase domain.RevealPurchase) (*domain.TokenEntry, error) {
	if purchase.QuoteID == "" || purchase.GroupKey == "" || purchase.SupplierID == "" {
		return nil, store.ErrValidation
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := appendTokenEntryTx(ctx, tx, entry)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reveal_purchases (quote_id, group_key, supplier_id, customer_id, charged, revealed, charged_at, revealed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (quote_id, group_key, supplier_id)
		DO UPDATE SET customer_id = $4, charged = $5, revealed = $6, charged_at = $7, revealed_at = $8
	`, purchase.QuoteID, purchase.GroupKey, purchase.SupplierID, purchase.CustomerID,
		purchase.Charged, purchase.Revealed, nullTime(purchase.ChargedAt), nullTime(purchase.RevealedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) GetTokenBalance(ctx context.Context, userID string) (int, error) {
	balance := 0
	err := s.db.QueryRowContext(ctx, `
		SELECT balance_after
		FROM token_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return balance, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrValidation
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

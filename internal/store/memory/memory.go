package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"smartquote/backend/internal/domain"
	"smartquote/backend/internal/store"
	"smartquote/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	areas            map[string]domain.Area
	categories       map[string]domain.Category
	subcategories    []domain.Subcategory
	units            map[string]domain.Unit
	suppliersByID    map[string]domain.SupplierProfile
	customersByID    map[string]domain.Customer
	quotesByID       map[string]*domain.QuoteRequest
	itemsByID        map[string]domain.RequestedItem
	distributionByID map[string]domain.DistributionRecord
	distributionKeys map[string]string
	responsesByID    map[string]domain.SupplierResponse
	revealsByKey     map[string]domain.RevealPurchase
	tokenLedger      map[string][]domain.TokenEntry
	usersByUsername  map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD, SEED_CUSTOMER_PASSWORD and
// SEED_SUPPLIER_PASSWORD; unset variables fall back to hardcoded dev defaults
// with a warning. Production deployments use PostgreSQL instead.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	customerPwd := envOr("SEED_CUSTOMER_PASSWORD", "customer123")
	supplierPwd := envOr("SEED_SUPPLIER_PASSWORD", "supplier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CUSTOMER_PASSWORD") == "" || os.Getenv("SEED_SUPPLIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD, SEED_CUSTOMER_PASSWORD and SEED_SUPPLIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, domain.RoleAdmin},
		{"customer", customerPwd, domain.RoleCustomer},
		{"supplier", supplierPwd, domain.RoleSupplier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()

	areas := []domain.Area{
		{Code: "JKT", Name: "Jakarta"},
		{Code: "BDG", Name: "Bandung"},
		{Code: "SBY", Name: "Surabaya"},
		{Code: "MDN", Name: "Medan"},
	}

	categories := []domain.Category{
		{Code: "CAT-TOOL", Name: "Perkakas"},
		{Code: "CAT-STEEL", Name: "Besi & Baja"},
		{Code: "CAT-CEMENT", Name: "Semen & Beton"},
		{Code: "CAT-ELEC", Name: "Material Listrik"},
	}

	subcategories := []domain.Subcategory{
		{Code: "SUB-HANDTOOL", CategoryCode: "CAT-TOOL", Name: "Perkakas Tangan"},
		{Code: "SUB-POWERTOOL", CategoryCode: "CAT-TOOL", Name: "Perkakas Listrik"},
		{Code: "SUB-REBAR", CategoryCode: "CAT-STEEL", Name: "Besi Beton"},
		{Code: "SUB-CABLE", CategoryCode: "CAT-ELEC", Name: "Kabel"},
	}

	units := []domain.Unit{
		{Code: "pcs", Name: "Pieces"},
		{Code: "box", Name: "Box"},
		{Code: "kg", Name: "Kilogram"},
		{Code: "btg", Name: "Batang"},
		{Code: "sak", Name: "Sak"},
		{Code: "m", Name: "Meter"},
	}

	suppliers := []domain.SupplierProfile{
		{ID: "sup-berkah", Name: "CV Berkah Teknik", Email: "sales@berkahteknik.example", Phone: "+62-811-1000-001", Address: "Jl. Industri 12, Jakarta", AreaCodes: []string{"JKT", "BDG"}, CreatedAt: now},
		{ID: "sup-cahaya", Name: "PT Cahaya Baja", Email: "order@cahayabaja.example", Phone: "+62-811-1000-002", Address: "Jl. Raya Gedebage 88, Bandung", AreaCodes: []string{"BDG"}, CreatedAt: now},
		{ID: "sup-delta", Name: "UD Delta Makmur", Email: "cs@deltamakmur.example", Phone: "+62-811-1000-003", Address: "Jl. Rungkut 5, Surabaya", AreaCodes: []string{"SBY", "JKT"}, CreatedAt: now},
		{ID: "sup-eka", Name: "PT Eka Listrik Nusantara", Email: "halo@ekalistrik.example", Phone: "+62-811-1000-004", Address: "Jl. Gatot Subroto 3, Medan", AreaCodes: []string{"MDN", "JKT"}, CreatedAt: now},
	}

	customers := []domain.Customer{
		{ID: "cust-adi", Name: "Adi Konstruksi", CreatedAt: now},
		{ID: "cust-buana", Name: "PT Buana Karya", CreatedAt: now},
	}

	areaMap := make(map[string]domain.Area, len(areas))
	for _, a := range areas {
		areaMap[a.Code] = a
	}
	categoryMap := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		categoryMap[c.Code] = c
	}
	unitMap := make(map[string]domain.Unit, len(units))
	for _, u := range units {
		unitMap[u.Code] = u
	}
	supplierMap := make(map[string]domain.SupplierProfile, len(suppliers))
	for _, s := range suppliers {
		supplierMap[s.ID] = s
	}
	customerMap := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		customerMap[c.ID] = c
	}

	st := &Store{
		areas:            areaMap,
		categories:       categoryMap,
		subcategories:    subcategories,
		units:            unitMap,
		suppliersByID:    supplierMap,
		customersByID:    customerMap,
		quotesByID:       make(map[string]*domain.QuoteRequest),
		itemsByID:        make(map[string]domain.RequestedItem),
		distributionByID: make(map[string]domain.DistributionRecord),
		distributionKeys: make(map[string]string),
		responsesByID:    make(map[string]domain.SupplierResponse),
		revealsByKey:     make(map[string]domain.RevealPurchase),
		tokenLedger:      make(map[string][]domain.TokenEntry),
		usersByUsername:  seedUsers(),
	}

	// Starter tokens so the demo customer can reveal a few contacts.
	st.tokenLedger["cust-adi"] = []domain.TokenEntry{{
		ID: xid.New("tok"), UserID: "cust-adi", Amount: 5, Reason: "seed", BalanceAfter: 5, CreatedAt: now,
	}}
	return st
}

func (s *Store) ListAreas(_ context.Context) ([]domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	areas := make([]domain.Area, 0, len(s.areas))
	for _, a := range s.areas {
		areas = append(areas, a)
	}
	slices.SortFunc(areas, func(a, b domain.Area) int { return cmpString(a.Code, b.Code) })
	return areas, nil
}

func (s *Store) GetArea(_ context.Context, code string) (*domain.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	area, exists := s.areas[code]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyArea := area
	return &copyArea, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int { return cmpString(a.Code, b.Code) })
	return categories, nil
}

func (s *Store) GetCategory(_ context.Context, code string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, exists := s.categories[code]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCategory := category
	return &copyCategory, nil
}

func (s *Store) ListSubcategories(_ context.Context, categoryCode string) ([]domain.Subcategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Subcategory, 0, len(s.subcategories))
	for _, sub := range s.subcategories {
		if categoryCode != "" && sub.CategoryCode != categoryCode {
			continue
		}
		result = append(result, sub)
	}
	slices.SortFunc(result, func(a, b domain.Subcategory) int { return cmpString(a.Code, b.Code) })
	return result, nil
}

func (s *Store) ListUnits(_ context.Context) ([]domain.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]domain.Unit, 0, len(s.units))
	for _, u := range s.units {
		units = append(units, u)
	}
	slices.SortFunc(units, func(a, b domain.Unit) int { return cmpString(a.Code, b.Code) })
	return units, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.SupplierProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.SupplierProfile, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		suppliers = append(suppliers, cloneSupplier(sup))
	}
	slices.SortFunc(suppliers, func(a, b domain.SupplierProfile) int { return cmpString(a.ID, b.ID) })
	return suppliers, nil
}

func (s *Store) GetSupplier(_ context.Context, supplierID string) (*domain.SupplierProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, exists := s.suppliersByID[supplierID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySup := cloneSupplier(sup)
	return &copySup, nil
}

func (s *Store) ListSuppliersByArea(_ context.Context, areaCode string) ([]domain.SupplierProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.SupplierProfile, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		if slices.Contains(sup.AreaCodes, areaCode) {
			suppliers = append(suppliers, cloneSupplier(sup))
		}
	}
	slices.SortFunc(suppliers, func(a, b domain.SupplierProfile) int { return cmpString(a.ID, b.ID) })
	return suppliers, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	slices.SortFunc(customers, func(a, b domain.Customer) int { return cmpString(a.ID, b.ID) })
	return customers, nil
}

func (s *Store) GetCustomer(_ context.Context, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customersByID[customerID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := customer
	return &copyCustomer, nil
}

func (s *Store) CreateQuote(_ context.Context, quote domain.QuoteRequest) (*domain.QuoteRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quote.CustomerID == "" || len(quote.AreaCodes) == 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.customersByID[quote.CustomerID]; !exists {
		return nil, store.ErrNotFound
	}
	for _, code := range quote.AreaCodes {
		if _, exists := s.areas[code]; !exists {
			return nil, store.ErrNotFound
		}
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

	stored := quote
	s.quotesByID[quote.ID] = &stored
	created := stored
	return &created, nil
}

func (s *Store) GetQuoteByID(_ context.Context, quoteID string) (*domain.QuoteRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, exists := s.quotesByID[quoteID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyQuote := s.cloneQuoteLocked(quote)
	return &copyQuote, nil
}

func (s *Store) ListQuotesByCustomer(_ context.Context, customerID string, status string, limit int) ([]domain.QuoteRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]domain.QuoteRequest, 0)
	for _, quote := range s.quotesByID {
		if customerID != "" && quote.CustomerID != customerID {
			continue
		}
		if status != "" && quote.Status != status {
			continue
		}
		quotes = append(quotes, s.cloneQuoteLocked(quote))
	}

	slices.SortFunc(quotes, func(a, b domain.QuoteRequest) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(quotes) > limit {
		quotes = quotes[:limit]
	}
	return quotes, nil
}

func (s *Store) UpdateQuoteStatus(_ context.Context, quoteID string, status string, updatedBy string) (*domain.QuoteRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote, exists := s.quotesByID[quoteID]
	if !exists {
		return nil, store.ErrNotFound
	}

	quote.Status = status
	quote.UpdatedBy = updatedBy
	quote.UpdatedAt = time.Now().UTC()
	copyQuote := s.cloneQuoteLocked(quote)
	return &copyQuote, nil
}

func (s *Store) AddQuoteItem(_ context.Context, item domain.RequestedItem) (*domain.RequestedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.QuoteID == "" || item.CategoryCode == "" || strings.TrimSpace(item.ProductName) == "" || item.Quantity < 1 {
		return nil, store.ErrValidation
	}
	if _, exists := s.quotesByID[item.QuoteID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.categories[item.CategoryCode]; !exists {
		return nil, store.ErrNotFound
	}

	if item.ID == "" {
		item.ID = xid.New("itm")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.itemsByID[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetQuoteItemByID(_ context.Context, itemID string) (*domain.RequestedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.itemsByID[itemID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func distributionKey(itemID string, areaCode string, supplierID string) string {
	return itemID + "|" + areaCode + "|" + supplierID
}

func (s *Store) UpsertDistribution(_ context.Context, record domain.DistributionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.QuoteID == "" || record.ItemID == "" || record.AreaCode == "" || record.SupplierID == "" {
		return false, store.ErrValidation
	}

	key := distributionKey(record.ItemID, record.AreaCode, record.SupplierID)
	if _, exists := s.distributionKeys[key]; exists {
		return false, nil
	}

	if record.ID == "" {
		record.ID = xid.New("dst")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.distributionByID[record.ID] = record
	s.distributionKeys[key] = record.ID
	return true, nil
}

func (s *Store) ListDistributionsByQuote(_ context.Context, quoteID string) ([]domain.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.DistributionRecord, 0)
	for _, record := range s.distributionByID {
		if record.QuoteID == quoteID {
			records = append(records, record)
		}
	}
	slices.SortFunc(records, func(a, b domain.DistributionRecord) int { return cmpString(a.ID, b.ID) })
	return records, nil
}

func (s *Store) ListDistributionsBySupplier(_ context.Context, supplierID string, limit int) ([]domain.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.DistributionRecord, 0)
	for _, record := range s.distributionByID {
		if record.SupplierID == supplierID {
			records = append(records, record)
		}
	}
	slices.SortFunc(records, func(a, b domain.DistributionRecord) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Store) FindDistribution(_ context.Context, itemID string, areaCode string, supplierID string) (*domain.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.distributionKeys[distributionKey(itemID, areaCode, supplierID)]
	if !exists {
		return nil, store.ErrNotFound
	}
	record := s.distributionByID[id]
	return &record, nil
}

func (s *Store) LatestDistributionForSupplierItem(_ context.Context, supplierID string, itemID string) (*domain.DistributionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.DistributionRecord
	for _, record := range s.distributionByID {
		if record.SupplierID != supplierID || record.ItemID != itemID {
			continue
		}
		record := record
		if latest == nil ||
			record.CreatedAt.After(latest.CreatedAt) ||
			(record.CreatedAt.Equal(latest.CreatedAt) && record.ID > latest.ID) {
			latest = &record
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	copyRecord := *latest
	return &copyRecord, nil
}

func (s *Store) CreateResponse(_ context.Context, response domain.SupplierResponse) (*domain.SupplierResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response.ItemID == "" || response.SupplierID == "" || response.AreaCode == "" {
		return nil, store.ErrValidation
	}
	if strings.TrimSpace(response.ProductName) == "" || response.Quantity < 1 || response.Price < 1 {
		return nil, store.ErrValidation
	}
	if _, exists := s.itemsByID[response.ItemID]; !exists {
		return nil, store.ErrNotFound
	}
	if _, exists := s.suppliersByID[response.SupplierID]; !exists {
		return nil, store.ErrNotFound
	}

	if response.ID == "" {
		response.ID = xid.New("rsp")
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}

	s.responsesByID[response.ID] = response
	created := response
	return &created, nil
}

func (s *Store) ListResponsesByQuote(_ context.Context, quoteID string) ([]domain.SupplierResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	responses := make([]domain.SupplierResponse, 0)
	for _, response := range s.responsesByID {
		if response.QuoteID == quoteID {
			responses = append(responses, response)
		}
	}
	slices.SortFunc(responses, func(a, b domain.SupplierResponse) int { return cmpString(a.ID, b.ID) })
	return responses, nil
}

func (s *Store) LatestResponseForDistribution(_ context.Context, itemID string, supplierID string) (*domain.SupplierResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SupplierResponse
	for _, response := range s.responsesByID {
		if response.ItemID != itemID || response.SupplierID != supplierID {
			continue
		}
		response := response
		if latest == nil ||
			response.CreatedAt.After(latest.CreatedAt) ||
			(response.CreatedAt.Equal(latest.CreatedAt) && response.ID > latest.ID) {
			latest = &response
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	copyResponse := *latest
	return &copyResponse, nil
}

func revealKey(quoteID string, groupKey string, supplierID string) string {
	return quoteID + "|" + groupKey + "|" + supplierID
}

func (s *Store) GetRevealPurchase(_ context.Context, quoteID string, groupKey string, supplierID string) (*domain.RevealPurchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, exists := s.revealsByKey[revealKey(quoteID, groupKey, supplierID)]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPurchase := purchase
	return &copyPurchase, nil
}

func (s *Store) SaveRevealPurchase(_ context.Context, purchase domain.RevealPurchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.QuoteID == "" || purchase.GroupKey == "" || purchase.SupplierID == "" {
		return store.ErrValidation
	}
	s.revealsByKey[revealKey(purchase.QuoteID, purchase.GroupKey, purchase.SupplierID)] = purchase
	return nil
}

func (s *Store) ListRevealedSuppliers(_ context.Context, quoteID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revealed := make(map[string]bool)
	for _, purchase := range s.revealsByKey {
		if purchase.QuoteID == quoteID && purchase.Revealed {
			revealed[purchase.GroupKey+"|"+purchase.SupplierID] = true
		}
	}
	return revealed, nil
}

func (s *Store) AppendTokenEntry(_ context.Context, entry domain.TokenEntry) (*domain.TokenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendTokenEntryLocked(entry)
}

// appendTokenEntryLocked assumes s.mu is held for writing.
func (s *Store) appendTokenEntryLocked(entry domain.TokenEntry) (*domain.TokenEntry, error) {
	if entry.UserID == "" || entry.Amount == 0 {
		return nil, store.ErrValidation
	}

	balance := 0
	if ledger := s.tokenLedger[entry.UserID]; len(ledger) > 0 {
		balance = ledger[len(ledger)-1].BalanceAfter
	}
	if balance+entry.Amount < 0 {
		return nil, store.ErrInsufficientTokens
	}

	if entry.ID == "" {
		entry.ID = xid.New("tok")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.BalanceAfter = balance + entry.Amount

	s.tokenLedger[entry.UserID] = append(s.tokenLedger[entry.UserID], entry)
	created := entry
	return &created, nil
}

// ChargeReveal runs the debit and the purchase upsert under one lock hold,
// validating both before writing either.
func (s *Store) ChargeReveal(_ context.Context, entry domain.TokenEntry, purchase domain.RevealPurchase) (*domain.TokenEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.QuoteID == "" || purchase.GroupKey == "" || purchase.SupplierID == "" {
		return nil, store.ErrValidation
	}

	created, err := s.appendTokenEntryLocked(entry)
	if err != nil {
		return nil, err
	}
	s.revealsByKey[revealKey(purchase.QuoteID, purchase.GroupKey, purchase.SupplierID)] = purchase
	return created, nil
}

func (s *Store) GetTokenBalance(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.tokenLedger[userID]
	if len(ledger) == 0 {
		return 0, nil
	}
	return ledger[len(ledger)-1].BalanceAfter, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" || user.Role == "" {
		return store.ErrValidation
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int { return cmpString(a.Username, b.Username) })
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

// cloneQuoteLocked copies a quote together with its items, sorted oldest
// first. Caller must hold at least a read lock.
func (s *Store) cloneQuoteLocked(quote *domain.QuoteRequest) domain.QuoteRequest {
	copyQuote := *quote
	copyQuote.AreaCodes = slices.Clone(quote.AreaCodes)

	items := make([]domain.RequestedItem, 0)
	for _, item := range s.itemsByID {
		if item.QuoteID == quote.ID {
			items = append(items, item)
		}
	}
	slices.SortFunc(items, func(a, b domain.RequestedItem) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	copyQuote.Items = items
	return copyQuote
}

func cloneSupplier(sup domain.SupplierProfile) domain.SupplierProfile {
	copySup := sup
	copySup.AreaCodes = slices.Clone(sup.AreaCodes)
	return copySup
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

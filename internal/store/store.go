package store

import (
	"context"
	"errors"

	"smartquote/backend/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrInconsistentState  = errors.New("inconsistent state")
)

type Repository interface {
	ListAreas(ctx context.Context) ([]domain.Area, error)
	GetArea(ctx context.Context, code string) (*domain.Area, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, code string) (*domain.Category, error)
	ListSubcategories(ctx context.Context, categoryCode string) ([]domain.Subcategory, error)
	ListUnits(ctx context.Context) ([]domain.Unit, error)

	ListSuppliers(ctx context.Context) ([]domain.SupplierProfile, error)
	GetSupplier(ctx context.Context, supplierID string) (*domain.SupplierProfile, error)
	ListSuppliersByArea(ctx context.Context, areaCode string) ([]domain.SupplierProfile, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)

	CreateQuote(ctx context.Context, quote domain.QuoteRequest) (*domain.QuoteRequest, error)
	GetQuoteByID(ctx context.Context, quoteID string) (*domain.QuoteRequest, error)
	ListQuotesByCustomer(ctx context.Context, customerID string, status string, limit int) ([]domain.QuoteRequest, error)
	UpdateQuoteStatus(ctx context.Context, quoteID string, status string, updatedBy string) (*domain.QuoteRequest, error)
	AddQuoteItem(ctx context.Context, item domain.RequestedItem) (*domain.RequestedItem, error)
	GetQuoteItemByID(ctx context.Context, itemID string) (*domain.RequestedItem, error)

	// UpsertDistribution is a no-op returning false when a record for the same
	// (item, area, supplier) already exists.
	UpsertDistribution(ctx context.Context, record domain.DistributionRecord) (bool, error)
	ListDistributionsByQuote(ctx context.Context, quoteID string) ([]domain.DistributionRecord, error)
	ListDistributionsBySupplier(ctx context.Context, supplierID string, limit int) ([]domain.DistributionRecord, error)
	FindDistribution(ctx context.Context, itemID string, areaCode string, supplierID string) (*domain.DistributionRecord, error)
	LatestDistributionForSupplierItem(ctx context.Context, supplierID string, itemID string) (*domain.DistributionRecord, error)

	CreateResponse(ctx context.Context, response domain.SupplierResponse) (*domain.SupplierResponse, error)
	ListResponsesByQuote(ctx context.Context, quoteID string) ([]domain.SupplierResponse, error)
	LatestResponseForDistribution(ctx context.Context, itemID string, supplierID string) (*domain.SupplierResponse, error)

	GetRevealPurchase(ctx context.Context, quoteID string, groupKey string, supplierID string) (*domain.RevealPurchase, error)
	SaveRevealPurchase(ctx context.Context, purchase domain.RevealPurchase) error
	ListRevealedSuppliers(ctx context.Context, quoteID string) (map[string]bool, error)

	// ChargeReveal appends the debit entry and saves the charged purchase
	// record as one unit: either both land or neither does, so a failure can
	// never leave a debit without its matching charge record.
	ChargeReveal(ctx context.Context, entry domain.TokenEntry, purchase domain.RevealPurchase) (*domain.TokenEntry, error)

	// AppendTokenEntry records a ledger row and returns it with BalanceAfter
	// filled in. Negative amounts that would push the balance below zero fail
	// with ErrInsufficientTokens and append nothing.
	AppendTokenEntry(ctx context.Context, entry domain.TokenEntry) (*domain.TokenEntry, error)
	GetTokenBalance(ctx context.Context, userID string) (int, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

package domain

import "time"

// Reference data. These are read-only master tables maintained outside the
// quotation flow.

type Area struct {
	Code string `json:"area_code"`
	Name string `json:"area_name"`
}

type Category struct {
	Code string `json:"category_code"`
	Name string `json:"category_name"`
}

type Subcategory struct {
	Code         string `json:"subcategory_code"`
	CategoryCode string `json:"category_code"`
	Name         string `json:"subcategory_name"`
}

type Unit struct {
	Code string `json:"unit_code"`
	Name string `json:"unit_name"`
}

// SupplierProfile carries the contact fields that are gated behind a token
// debit, plus the areas the supplier serves (used for distribution fan-out).
type SupplierProfile struct {
	ID          string    `json:"supplier_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone_number"`
	Address     string    `json:"address"`
	OfficePhone string    `json:"office_phone,omitempty"`
	AreaCodes   []string  `json:"area_codes"`
	CreatedAt   time.Time `json:"created_at"`
}

type Customer struct {
	ID        string    `json:"customer_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// QuoteRequest is a customer's request for a set of products in one or more
// areas. Status transitions: wait_for_approval -> approved | rejected.
// Approval triggers distribution; approved and rejected are terminal.
type QuoteRequest struct {
	ID         string          `json:"quote_id"`
	CustomerID string          `json:"customer_id"`
	AreaCodes  []string        `json:"area_codes"`
	Status     string          `json:"status"`
	CreatedBy  string          `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedBy  string          `json:"updated_by,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Items      []RequestedItem `json:"items"`
}

// RequestedItem is one line of a QuoteRequest. ProductName is free text; the
// ranking engine matches it against offers by normalized (lower-cased,
// trimmed) name within the same category.
type RequestedItem struct {
	ID              string    `json:"item_id"`
	QuoteID         string    `json:"quote_id"`
	CategoryCode    string    `json:"category_code"`
	SubcategoryCode string    `json:"subcategory_code,omitempty"`
	ProductName     string    `json:"product_name"`
	Unit            string    `json:"unit_code"`
	Size            string    `json:"size,omitempty"`
	Quantity        int       `json:"quantity"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type QuoteCreateRequest struct {
	CustomerID string   `json:"customer_id"`
	AreaCodes  []string `json:"area_codes"`
	CreatedBy  string   `json:"created_by,omitempty"`
}

type QuoteItemCreateRequest struct {
	CategoryCode    string `json:"category_code"`
	SubcategoryCode string `json:"subcategory_code,omitempty"`
	ProductName     string `json:"product_name"`
	Unit            string `json:"unit_code"`
	Size            string `json:"size,omitempty"`
	Quantity        int    `json:"quantity"`
	Note            string `json:"note,omitempty"`
}

type QuoteStatusUpdateRequest struct {
	Status      string `json:"status"`
	UpdatedBy   string `json:"updated_by,omitempty"`
	ApprovalPIN string `json:"approval_pin"`
}

type QuoteStatusUpdateResponse struct {
	QuoteID       string `json:"quote_id"`
	Status        string `json:"status"`
	Distributions int    `json:"distributions"`
}

// DistributionRecord marks that a supplier was notified about one requested
// item in one area and is eligible to respond to it. At most one record
// exists per (item, area, supplier) no matter how often approval is retried.
type DistributionRecord struct {
	ID         string    `json:"distribution_id"`
	QuoteID    string    `json:"quote_id"`
	ItemID     string    `json:"item_id"`
	AreaCode   string    `json:"area_code"`
	SupplierID string    `json:"supplier_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// SupplierResponse is a supplier's offer against a distributed item. A
// supplier may submit several times; aggregate views resolve to the latest
// submission per (item, area, supplier).
type SupplierResponse struct {
	ID           string    `json:"response_id"`
	ItemID       string    `json:"item_id"`
	QuoteID      string    `json:"quote_id"`
	SupplierID   string    `json:"supplier_id"`
	AreaCode     string    `json:"area_code"`
	CategoryCode string    `json:"category_code"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	Price        int64     `json:"price"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ResponseCreateRequest struct {
	ItemID      string `json:"item_id"`
	SupplierID  string `json:"supplier_id"`
	AreaCode    string `json:"area_code,omitempty"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	Note        string `json:"note,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// RankedCandidate is derived on every read; ranks are never persisted. It
// carries all the display labels the results view needs so no further
// lookups are required.
type RankedCandidate struct {
	QuoteID       string `json:"quote_id"`
	AreaCode      string `json:"area_code,omitempty"`
	AreaName      string `json:"area_name,omitempty"`
	CategoryCode  string `json:"category_code"`
	CategoryName  string `json:"category_name,omitempty"`
	GroupKey      string `json:"group_key"`
	ItemID        string `json:"item_id,omitempty"`
	RequestedName string `json:"product_name"`
	RequestedNote string `json:"req_note,omitempty"`
	Unit          string `json:"unit_code,omitempty"`
	RequestedQty  int    `json:"req_qty"`

	ResponseID   string `json:"response_id"`
	SupplierID   string `json:"supplier_id"`
	SupplierName string `json:"supplier_name,omitempty"`
	OfferedName  string `json:"resp_product_name"`
	OfferedNote  string `json:"resp_note,omitempty"`
	OfferedQty   int    `json:"resp_qty"`
	Price        int64  `json:"price"`

	NameMatched bool `json:"name_matched"`
	QtyMatched  bool `json:"qty_matched"`
	QtyPoint    int  `json:"qty_point"`
	PricePoint  int  `json:"price_point"`
	TotalPoint  int  `json:"total_point"`
	RankBucket  int  `json:"rank_bucket"`
	RankNo      int  `json:"rank_no"`

	ContactRevealed bool `json:"contact_revealed"`
}

type RankingResponse struct {
	Mode    string            `json:"mode"`
	Policy  string            `json:"policy"`
	TopN    int               `json:"top_n"`
	Results []RankedCandidate `json:"results"`
}

// RevealPurchase tracks the two halves of a contact reveal so the operation
// stays idempotent: Charged flips when the token debit lands, Revealed when
// the contact is actually unlocked. Charged && !Revealed is the recoverable
// half-done state.
type RevealPurchase struct {
	QuoteID    string    `json:"quote_id"`
	GroupKey   string    `json:"group_key"`
	SupplierID string    `json:"supplier_id"`
	CustomerID string    `json:"customer_id"`
	Charged    bool      `json:"charged"`
	Revealed   bool      `json:"revealed"`
	ChargedAt  time.Time `json:"charged_at,omitempty"`
	RevealedAt time.Time `json:"revealed_at,omitempty"`
}

type RevealRequest struct {
	QuoteID    string `json:"quote_id"`
	GroupKey   string `json:"group_key"`
	SupplierID string `json:"supplier_id"`
	CustomerID string `json:"customer_id,omitempty"`
}

type RevealResponse struct {
	Status       string `json:"status"`
	TokenBalance int    `json:"token_balance"`
}

type SupplierContactResponse struct {
	Revealed bool             `json:"revealed"`
	Contact  *SupplierProfile `json:"contact,omitempty"`
}

// TokenEntry is one row of the append-only token ledger.
type TokenEntry struct {
	ID           string    `json:"token_entry_id"`
	UserID       string    `json:"user_id"`
	Amount       int       `json:"amount"`
	Reason       string    `json:"reason,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

type TokenBalanceResponse struct {
	UserID       string `json:"user_id"`
	TokenBalance int    `json:"token_balance"`
}

type TokenMutationRequest struct {
	UserID string `json:"user_id"`
	Amount int    `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// SupplierInboxEntry joins a distribution record with the supplier's latest
// response to that item, if any.
type SupplierInboxEntry struct {
	DistributionID string    `json:"distribution_id"`
	QuoteID        string    `json:"quote_id"`
	ItemID         string    `json:"item_id"`
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name,omitempty"`
	AreaCode       string    `json:"area_code"`
	AreaName       string    `json:"area_name,omitempty"`
	CategoryCode   string    `json:"category_code"`
	CategoryName   string    `json:"category_name,omitempty"`
	RequestedName  string    `json:"requested_product_name"`
	Size           string    `json:"requested_size,omitempty"`
	Unit           string    `json:"unit_code,omitempty"`
	RequestedQty   int       `json:"requested_qty"`
	RequestedNote  string    `json:"requested_note,omitempty"`
	DistributedAt  time.Time `json:"distributed_at"`

	Response *SupplierResponse `json:"response,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	QuoteStatusWaitForApproval = "wait_for_approval"
	QuoteStatusApproved        = "approved"
	QuoteStatusRejected        = "rejected"
)

const (
	RoleCustomer = "customer"
	RoleSupplier = "supplier"
	RoleAdmin    = "admin"
)

const (
	RevealStatusRevealed        = "revealed"
	RevealStatusAlreadyRevealed = "already_revealed"
)

package ledger

import (
	"context"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomerFilter contains filter options for listing customers
type CustomerFilter struct {
	Search          string
	IncludeInactive bool
	shared.Page
}

// CustomerRepository defines the interface for customer persistence.
// Every lookup is tenant scoped; a customer of another tenant is NotFound.
type CustomerRepository interface {
	// FindByID finds a customer within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindForUpdate loads the customer and takes a row lock held until the
	// surrounding transaction ends. Only valid inside a TransactionScope.
	FindForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)

	// FindByLookupToken resolves an active customer by QR code or PIN
	FindByLookupToken(ctx context.Context, tenantID uuid.UUID, token string) (*Customer, error)

	ExistsByQRCode(ctx context.Context, tenantID uuid.UUID, qrCode string) (bool, error)
	ExistsByPIN(ctx context.Context, tenantID uuid.UUID, pin string, excludeID *uuid.UUID) (bool, error)

	// Create inserts a new customer
	Create(ctx context.Context, customer *Customer) error

	// SaveWithLock persists a mutated customer guarded by its previous
	// version; a lost race returns ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, customer *Customer) error

	// List lists customers with search and pagination
	List(ctx context.Context, tenantID uuid.UUID, filter CustomerFilter) ([]*Customer, int64, error)

	// ListAll returns every customer of a tenant, for reports
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]*Customer, error)
}

// TransactionFilter contains filter options for listing ledger entries
type TransactionFilter struct {
	CustomerID *uuid.UUID
	Type       *EntryType
	DateFrom   *time.Time
	DateTo     *time.Time
	shared.Page
}

// TransactionRepository persists the append-only ledger
type TransactionRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, tx *Transaction) error

	// FindByID finds a ledger entry within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// UpdateItems backfills the items of a consume entry. It is the only
	// update the ledger allows.
	UpdateItems(ctx context.Context, tx *Transaction) error

	// List lists entries newest first
	List(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// ListForExport returns up to limit entries in the date range, oldest first
	ListForExport(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter, limit int) ([]*Transaction, error)

	// ListByCustomerChronological returns the customer's full log in creation order
	ListByCustomerChronological(ctx context.Context, tenantID, customerID uuid.UUID) ([]*Transaction, error)

	// CountSince counts entries created at or after since
	CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)
}

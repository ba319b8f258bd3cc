package contact

import (
	"context"

	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// Store defines the data access contract for contact records. Adapters
// translate the condition tree into their native query form; the engine
// guarantees every query.Field it passes comes from the fixed set in
// fields.go.
//
// CountMatching and FetchMatching are two separate round trips. Unless an
// adapter wraps them in a repeatable-read transaction, the total and the
// page are eventually consistent with respect to concurrent writers.
type Store interface {
	// CountMatching returns the exact number of contacts satisfying cond.
	CountMatching(ctx context.Context, cond query.Node) (int64, error)

	// FetchMatching returns the ordered window of contacts satisfying cond.
	// An offset beyond the result set yields an empty slice, not an error.
	FetchMatching(ctx context.Context, cond query.Node, order []query.OrderKey, offset int64, limit int) ([]domain.Contact, error)

	// Save inserts or updates a contact. On first insert it assigns the id
	// and the created/updated audit timestamps; on update it refreshes the
	// updated timestamp.
	Save(ctx context.Context, c *domain.Contact) error

	// FindByID returns the contact or ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Contact, error)

	// DeleteByID removes a contact. Deleting an absent id is a no-op.
	DeleteByID(ctx context.Context, id string) error

	// ExistsByID reports whether a contact with the id exists.
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// Page is one window of search results plus the total count of all records
// matching the same condition, independent of the window.
type Page struct {
	Contacts   []domain.Contact `json:"contacts"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalPages int64            `json:"total_pages"`
	HasNext    bool             `json:"has_next"`
}

func newPage(contacts []domain.Contact, req query.PageRequest, total int64) *Page {
	totalPages := int64(0)
	if total > 0 {
		totalPages = (total + int64(req.Size) - 1) / int64(req.Size)
	}
	return &Page{
		Contacts:   contacts,
		Total:      total,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: totalPages,
		HasNext:    int64(req.Page)+1 < totalPages,
	}
}

package contact_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
	"github.com/dimitryivaniuta/contactdir/internal/store/memory"
)

func newTestService() *contact.Service {
	return contact.NewService(memory.New())
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, contact.CreateInput{Email: "jane@example.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestCreateRequiresEmail(t *testing.T) {
	svc := newTestService()

	_, err := svc.Create(context.Background(), contact.CreateInput{FirstName: "NoEmail"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}

func TestCreateTrimsWhitespace(t *testing.T) {
	svc := newTestService()

	c, err := svc.Create(context.Background(), contact.CreateInput{
		Email:     "  jane@example.com ",
		FirstName: " Jane\t",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, "Jane", c.FirstName)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, contact.ErrNotFound)
}

func TestUpdatePartialChangeSet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, contact.CreateInput{
		Email:       "bob@example.com",
		FirstName:   "Bob",
		LastName:    "Jones",
		CompanyName: "Acme",
	})
	require.NoError(t, err)

	bounces := 3
	_, err = svc.Update(ctx, created.ID, contact.UpdateFields{BounceCount: &bounces})
	require.NoError(t, err)

	// A later change-set that does not mention the bounce count must not
	// reset it, even though the Go zero value for int is 0.
	newName := "Robert"
	updated, err := svc.Update(ctx, created.ID, contact.UpdateFields{FirstName: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Robert", updated.FirstName)
	assert.Equal(t, 3, updated.BounceCount)
	assert.Equal(t, "Jones", updated.LastName)
	assert.Equal(t, "Acme", updated.CompanyName)
}

func TestUpdateCanClearToZero(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, contact.CreateInput{Email: "carol@example.com"})
	require.NoError(t, err)

	three := 3
	_, err = svc.Update(ctx, created.ID, contact.UpdateFields{BounceCount: &three})
	require.NoError(t, err)

	zero := 0
	updated, err := svc.Update(ctx, created.ID, contact.UpdateFields{BounceCount: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.BounceCount)
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService()

	name := "Ghost"
	_, err := svc.Update(context.Background(), "missing", contact.UpdateFields{FirstName: &name})
	assert.ErrorIs(t, err, contact.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, contact.CreateInput{Email: "gone@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID))
	require.NoError(t, svc.Delete(ctx, c.ID))
	require.NoError(t, svc.Delete(ctx, "never-existed"))

	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, contact.ErrNotFound)

	ok, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func seedContacts(t *testing.T, svc *contact.Service, n int) []*domain.Contact {
	t.Helper()
	ctx := context.Background()
	out := make([]*domain.Contact, 0, n)
	for i := 0; i < n; i++ {
		c, err := svc.Create(ctx, contact.CreateInput{
			Email:     fmt.Sprintf("c%02d@example.com", i),
			FirstName: fmt.Sprintf("First%02d", i),
		})
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func TestSearchEmptyFilterMatchesAll(t *testing.T) {
	svc := newTestService()
	seedContacts(t, svc, 7)

	page, err := svc.Search(context.Background(), contact.Filter{}, query.PageRequest{Size: 50}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	assert.Len(t, page.Contacts, 7)
}

func TestSearchNarrowingIsMonotonic(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i, in := range []contact.CreateInput{
		{Email: "a@x.com", CountryCode: "PL", CompanyName: "Acme"},
		{Email: "b@x.com", CountryCode: "PL", CompanyName: "Globex"},
		{Email: "c@x.com", CountryCode: "DE", CompanyName: "Acme"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err, "seed %d", i)
	}

	broad, err := svc.Search(ctx, contact.Filter{CountryCode: "pl"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)

	narrow, err := svc.Search(ctx, contact.Filter{CountryCode: "pl", CompanyName: "Acme"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(2), broad.Total)
	assert.Equal(t, int64(1), narrow.Total)
	assert.LessOrEqual(t, narrow.Total, broad.Total)
}

func TestSearchTagTokenBoundaries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, contact.CreateInput{Email: "tagged@x.com", Tags: "vip,gold"})
	require.NoError(t, err)

	for tag, want := range map[string]int64{
		"vip":    1,
		"gold":   1,
		"vi":     0,
		"old":    0,
		"silver": 0,
	} {
		page, err := svc.Search(ctx, contact.Filter{Tag: tag}, query.PageRequest{Size: 10}, nil)
		require.NoError(t, err, "tag %q", tag)
		assert.Equal(t, want, page.Total, "tag %q", tag)
	}

	// Substring search has no token boundary.
	page, err := svc.Search(ctx, contact.Filter{TagsContains: "old"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestCreateCanonicalizesTags(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	c, err := svc.Create(ctx, contact.CreateInput{Email: "tagged@x.com", Tags: " vip, gold ,,"})
	require.NoError(t, err)
	assert.Equal(t, "vip,gold", c.Tags)

	// Token search relies on a canonical stored list.
	page, err := svc.Search(ctx, contact.Filter{Tag: "gold"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestSearchFreeText(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, in := range []contact.CreateInput{
		{Email: "ivan.petrov@x.com", FirstName: "Dmitry"},
		{Email: "z@x.com", FirstName: "Ivanna"},
		{Email: "q@x.com", CompanyName: "Ivanov Consulting"},
		{Email: "other@x.com", FirstName: "Maria"},
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.Search(ctx, contact.Filter{FreeText: "IVAN"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
}

func TestSearchPagination(t *testing.T) {
	svc := newTestService()
	seedContacts(t, svc, 25)
	ctx := context.Background()
	sort := []contact.SortRequest{{Field: "email"}}

	page0, err := svc.Search(ctx, contact.Filter{}, query.PageRequest{Page: 0, Size: 10}, sort)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page0.Total)
	assert.Equal(t, int64(3), page0.TotalPages)
	assert.True(t, page0.HasNext)
	require.Len(t, page0.Contacts, 10)
	assert.Equal(t, "c00@example.com", page0.Contacts[0].Email)

	page2, err := svc.Search(ctx, contact.Filter{}, query.PageRequest{Page: 2, Size: 10}, sort)
	require.NoError(t, err)
	assert.False(t, page2.HasNext)
	require.Len(t, page2.Contacts, 5)
	assert.Equal(t, "c20@example.com", page2.Contacts[0].Email)

	// Beyond the last window: still total, no rows, no error.
	page3, err := svc.Search(ctx, contact.Filter{}, query.PageRequest{Page: 3, Size: 10}, sort)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page3.Total)
	assert.Empty(t, page3.Contacts)
}

func TestSearchPageBoundsClamped(t *testing.T) {
	svc := newTestService()
	seedContacts(t, svc, 3)
	ctx := context.Background()

	page, err := svc.Search(ctx, contact.Filter{}, query.PageRequest{Page: -5, Size: 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, contact.DefaultPageSize, page.Size)

	page, err = svc.Search(ctx, contact.Filter{}, query.PageRequest{Size: 100000}, nil)
	require.NoError(t, err)
	assert.Equal(t, contact.MaxPageSize, page.Size)
}

func TestSearchSortOrder(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, email := range []string{"b@x.com", "a@x.com", "c@x.com"} {
		_, err := svc.Create(ctx, contact.CreateInput{Email: email})
		require.NoError(t, err)
	}

	page, err := svc.Search(ctx, contact.Filter{}, query.PageRequest{Size: 10},
		[]contact.SortRequest{{Field: "email", Desc: true}})
	require.NoError(t, err)
	require.Len(t, page.Contacts, 3)
	assert.Equal(t, "c@x.com", page.Contacts[0].Email)
	assert.Equal(t, "a@x.com", page.Contacts[2].Email)
}

// failFetchStore delegates everything to the wrapped store but refuses the
// page fetch, proving when the service skips it.
type failFetchStore struct {
	contact.Store
}

func (s failFetchStore) FetchMatching(context.Context, query.Node, []query.OrderKey, int64, int) ([]domain.Contact, error) {
	return nil, errors.New("fetch must not be called")
}

func TestSearchZeroCountSkipsFetch(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()

	base := contact.NewService(mem)
	_, err := base.Create(ctx, contact.CreateInput{Email: "only@x.com", CountryCode: "PL"})
	require.NoError(t, err)

	svc := contact.NewService(failFetchStore{Store: mem})

	// No match: the count is zero, so the failing fetch is never reached.
	page, err := svc.Search(ctx, contact.Filter{CountryCode: "XX"}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Contacts)
	assert.Equal(t, int64(0), page.TotalPages)
	assert.False(t, page.HasNext)

	// A match forces the fetch, which fails.
	_, err = svc.Search(ctx, contact.Filter{CountryCode: "PL"}, query.PageRequest{Size: 10}, nil)
	require.Error(t, err)
}

func TestSearchRangeFilters(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	old := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)

	a, err := svc.Create(ctx, contact.CreateInput{Email: "old@x.com"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, a.ID, contact.UpdateFields{LastActivityAt: &old})
	require.NoError(t, err)

	b, err := svc.Create(ctx, contact.CreateInput{Email: "recent@x.com"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, b.ID, contact.UpdateFields{LastActivityAt: &recent})
	require.NoError(t, err)

	// No activity timestamp at all.
	_, err = svc.Create(ctx, contact.CreateInput{Email: "never@x.com"})
	require.NoError(t, err)

	cut := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	page, err := svc.Search(ctx, contact.Filter{LastActivityFrom: &cut}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "recent@x.com", page.Contacts[0].Email)

	// The unset timestamp satisfies neither bound.
	page, err = svc.Search(ctx, contact.Filter{LastActivityTo: &cut}, query.PageRequest{Size: 10}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "old@x.com", page.Contacts[0].Email)
}

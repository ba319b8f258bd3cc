// Package memory provides an in-memory contact.Store. It is the reference
// backend for the condition tree semantics and doubles as the test fixture
// for the engine: every operator is evaluated directly against contact
// values, with the same null and case-folding behavior the SQL adapters
// produce.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// Store is a mutex-guarded in-memory contact store.
type Store struct {
	mu       sync.RWMutex
	contacts map[string]*domain.Contact
	now      func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		contacts: make(map[string]*domain.Contact),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CountMatching(_ context.Context, cond query.Node) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, c := range s.contacts {
		ok, err := matches(c, cond)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (s *Store) FetchMatching(_ context.Context, cond query.Node, order []query.OrderKey, offset int64, limit int) ([]domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Contact
	for _, c := range s.contacts {
		ok, err := matches(c, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *c)
		}
	}

	if err := sortContacts(out, order); err != nil {
		return nil, err
	}

	if offset >= int64(len(out)) {
		return nil, nil
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, c *domain.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	} else if existing, ok := s.contacts[c.ID]; ok {
		c.CreatedAt = existing.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	cp := *c
	s.contacts[c.ID] = &cp
	return nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, id)
	return nil
}

func (s *Store) ExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contacts[id]
	return ok, nil
}

// matches evaluates the condition tree against one contact.
func matches(c *domain.Contact, n query.Node) (bool, error) {
	if n.Empty() {
		return true, nil
	}
	results := make([]bool, 0, len(n.Conds)+len(n.Groups))
	for _, cond := range n.Conds {
		ok, err := condMatches(c, cond)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	for _, g := range n.Groups {
		if g.Empty() {
			continue
		}
		ok, err := matches(c, g)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}

	if n.Or {
		for _, r := range results {
			if r {
				return true, nil
			}
		}
		return false, nil
	}
	for _, r := range results {
		if !r {
			return false, nil
		}
	}
	return true, nil
}

func condMatches(c *domain.Contact, cond query.Cond) (bool, error) {
	switch cond.Op {
	case query.OpEq:
		switch v := cond.Value.(type) {
		case string:
			s, err := stringField(c, cond.Field)
			return s == v, err
		case bool:
			b, err := boolField(c, cond.Field)
			return b == v, err
		default:
			return false, fmt.Errorf("memory: equality on unsupported value %T", cond.Value)
		}
	case query.OpEqFold:
		v, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("memory: case-insensitive equality needs a string, got %T", cond.Value)
		}
		// Folded with ToLower rather than EqualFold so the comparison agrees
		// byte for byte with the SQL adapters' LOWER(...).
		s, err := stringField(c, cond.Field)
		return strings.ToLower(s) == strings.ToLower(v), err
	case query.OpContainsFold:
		v, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("memory: contains needs a string, got %T", cond.Value)
		}
		s, err := stringField(c, cond.Field)
		if err != nil {
			return false, err
		}
		return s != "" && strings.Contains(strings.ToLower(s), strings.ToLower(v)), nil
	case query.OpHasToken:
		v, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("memory: token match needs a string, got %T", cond.Value)
		}
		s, err := stringField(c, cond.Field)
		if err != nil {
			return false, err
		}
		// Stored tokens are compared untrimmed, exactly as the SQL adapters'
		// delimiter-wrapped LIKE sees them; the service canonicalizes Tags
		// on write so padded lists never reach a store.
		want := strings.ToLower(strings.TrimSpace(v))
		for _, tok := range strings.Split(s, domain.TagDelimiter) {
			if strings.ToLower(tok) == want {
				return true, nil
			}
		}
		return false, nil
	case query.OpGte, query.OpLte:
		return rangeMatches(c, cond)
	default:
		return false, fmt.Errorf("memory: unsupported operator %d", cond.Op)
	}
}

func rangeMatches(c *domain.Contact, cond query.Cond) (bool, error) {
	switch v := cond.Value.(type) {
	case int:
		n, err := intField(c, cond.Field)
		if err != nil {
			return false, err
		}
		if cond.Op == query.OpGte {
			return n >= v, nil
		}
		return n <= v, nil
	case time.Time:
		t, err := timeField(c, cond.Field)
		if err != nil {
			return false, err
		}
		// An unset timestamp satisfies no bound, mirroring SQL NULL.
		if t == nil {
			return false, nil
		}
		if cond.Op == query.OpGte {
			return !t.Before(v), nil
		}
		return !t.After(v), nil
	default:
		return false, fmt.Errorf("memory: range bound on unsupported value %T", cond.Value)
	}
}

func stringField(c *domain.Contact, f query.Field) (string, error) {
	switch f {
	case contact.FieldEmail:
		return c.Email, nil
	case contact.FieldSecondaryEmail:
		return c.SecondaryEmail, nil
	case contact.FieldFirstName:
		return c.FirstName, nil
	case contact.FieldMiddleName:
		return c.MiddleName, nil
	case contact.FieldLastName:
		return c.LastName, nil
	case contact.FieldMobilePhone:
		return c.MobilePhone, nil
	case contact.FieldWorkPhone:
		return c.WorkPhone, nil
	case contact.FieldHomePhone:
		return c.HomePhone, nil
	case contact.FieldCompanyName:
		return c.CompanyName, nil
	case contact.FieldJobTitle:
		return c.JobTitle, nil
	case contact.FieldAddressLine1:
		return c.AddressLine1, nil
	case contact.FieldAddressLine2:
		return c.AddressLine2, nil
	case contact.FieldCity:
		return c.City, nil
	case contact.FieldStateRegion:
		return c.StateRegion, nil
	case contact.FieldPostalCode:
		return c.PostalCode, nil
	case contact.FieldCountryCode:
		return c.CountryCode, nil
	case contact.FieldTimeZone:
		return c.TimeZone, nil
	case contact.FieldLocale:
		return c.Locale, nil
	case contact.FieldPreferredChannel:
		return c.PreferredChannel, nil
	case contact.FieldTags:
		return c.Tags, nil
	case contact.FieldGender:
		return c.Gender, nil
	default:
		return "", fmt.Errorf("memory: %q is not a string field", f)
	}
}

func boolField(c *domain.Contact, f query.Field) (bool, error) {
	switch f {
	case contact.FieldActive:
		return c.Active, nil
	case contact.FieldMarketingOptIn:
		return c.MarketingOptIn, nil
	case contact.FieldUnsubscribed:
		return c.Unsubscribed, nil
	default:
		return false, fmt.Errorf("memory: %q is not a boolean field", f)
	}
}

func intField(c *domain.Contact, f query.Field) (int, error) {
	if f == contact.FieldBounceCount {
		return c.BounceCount, nil
	}
	return 0, fmt.Errorf("memory: %q is not a numeric field", f)
}

func timeField(c *domain.Contact, f query.Field) (*time.Time, error) {
	switch f {
	case contact.FieldBirthDate:
		return c.BirthDate, nil
	case contact.FieldCreatedAt:
		t := c.CreatedAt
		return &t, nil
	case contact.FieldLastActivityAt:
		return c.LastActivityAt, nil
	case contact.FieldLastEmailedAt:
		return c.LastEmailedAt, nil
	case contact.FieldLastOpenedAt:
		return c.LastOpenedAt, nil
	case contact.FieldLastClickedAt:
		return c.LastClickedAt, nil
	default:
		return nil, fmt.Errorf("memory: %q is not a temporal field", f)
	}
}

// sortContacts orders the slice by the given keys, id as the final
// tie-breaker so pagination stays stable. Unset timestamps sort after every
// value ascending and before every value descending, matching SQL defaults.
func sortContacts(cs []domain.Contact, order []query.OrderKey) error {
	var sortErr error
	sort.SliceStable(cs, func(i, j int) bool {
		for _, key := range order {
			cmp, err := compareField(&cs[i], &cs[j], key.Field)
			if err != nil {
				sortErr = err
				return false
			}
			if cmp == 0 {
				continue
			}
			if key.Direction == query.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return cs[i].ID < cs[j].ID
	})
	return sortErr
}

func compareField(a, b *domain.Contact, f query.Field) (int, error) {
	switch f {
	case contact.FieldBounceCount:
		av, _ := intField(a, f)
		bv, _ := intField(b, f)
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		}
		return 0, nil
	case contact.FieldBirthDate, contact.FieldCreatedAt, contact.FieldLastActivityAt,
		contact.FieldLastEmailedAt, contact.FieldLastOpenedAt, contact.FieldLastClickedAt:
		av, err := timeField(a, f)
		if err != nil {
			return 0, err
		}
		bv, err := timeField(b, f)
		if err != nil {
			return 0, err
		}
		switch {
		case av == nil && bv == nil:
			return 0, nil
		case av == nil:
			return 1, nil // unset sorts last ascending
		case bv == nil:
			return -1, nil
		case av.Before(*bv):
			return -1, nil
		case av.After(*bv):
			return 1, nil
		}
		return 0, nil
	default:
		av, err := stringField(a, f)
		if err != nil {
			return 0, err
		}
		bv, err := stringField(b, f)
		if err != nil {
			return 0, err
		}
		return strings.Compare(av, bv), nil
	}
}

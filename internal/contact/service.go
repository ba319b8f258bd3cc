package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// Pagination bounds for search requests.
const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// Service implements contact directory business logic. All public methods
// are safe for concurrent use if the underlying store is concurrency-safe:
// separate invocations share no mutable state.
type Service struct {
	store Store
}

// NewService creates a contact service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns a single contact or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return s.store.FindByID(ctx, id)
}

// Create validates, normalizes and persists a new contact. The store assigns
// the id and audit timestamps.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Contact, error) {
	c := in.toContact()
	normalize(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

// Update applies a partial change-set to an existing contact as an explicit
// read-modify-write: load current state, overwrite only the fields present
// in the change-set, persist the merged result. A nil pointer in u leaves
// the stored value untouched, so a zero value is never mistaken for absence.
func (s *Service) Update(ctx context.Context, id string, u UpdateFields) (*domain.Contact, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.apply(c)
	normalize(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	return c, nil
}

// Delete removes a contact. Deleting an id that does not exist is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, id)
}

// Exists reports whether a contact with the id exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.store.ExistsByID(ctx, id)
}

// Search compiles the filter, counts the matching contacts, and fetches one
// page. When the count is zero the fetch is skipped and an empty page is
// returned. The count and the page are separate store round trips; under
// concurrent writes they may disagree for a moment, which is accepted rather
// than serialized away.
func (s *Service) Search(ctx context.Context, f Filter, page query.PageRequest, sorts []SortRequest) (*Page, error) {
	page = clampPage(page)
	cond := f.Compile()

	total, err := s.store.CountMatching(ctx, cond)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	if total == 0 {
		return newPage(nil, page, 0), nil
	}

	order := ResolveSort(sorts)
	if len(order) == 0 {
		order = DefaultOrder
	}

	contacts, err := s.store.FetchMatching(ctx, cond, order, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("fetch contacts: %w", err)
	}
	return newPage(contacts, page, total), nil
}

func clampPage(p query.PageRequest) query.PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// CreateInput holds the caller-settable fields for a new contact.
type CreateInput struct {
	Email          string `json:"email"`
	SecondaryEmail string `json:"secondary_email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`

	MobilePhone string `json:"mobile_phone,omitempty"`
	WorkPhone   string `json:"work_phone,omitempty"`
	HomePhone   string `json:"home_phone,omitempty"`

	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`

	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	StateRegion  string `json:"state_region,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`

	TimeZone         string `json:"time_zone,omitempty"`
	Locale           string `json:"locale,omitempty"`
	PreferredChannel string `json:"preferred_channel,omitempty"`
	Tags             string `json:"tags,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty"`

	Active         bool `json:"active"`
	MarketingOptIn bool `json:"marketing_opt_in"`
	Unsubscribed   bool `json:"unsubscribed"`
}

func (in CreateInput) toContact() *domain.Contact {
	return &domain.Contact{
		Email:            in.Email,
		SecondaryEmail:   in.SecondaryEmail,
		FirstName:        in.FirstName,
		MiddleName:       in.MiddleName,
		LastName:         in.LastName,
		MobilePhone:      in.MobilePhone,
		WorkPhone:        in.WorkPhone,
		HomePhone:        in.HomePhone,
		CompanyName:      in.CompanyName,
		JobTitle:         in.JobTitle,
		AddressLine1:     in.AddressLine1,
		AddressLine2:     in.AddressLine2,
		City:             in.City,
		StateRegion:      in.StateRegion,
		PostalCode:       in.PostalCode,
		CountryCode:      in.CountryCode,
		TimeZone:         in.TimeZone,
		Locale:           in.Locale,
		PreferredChannel: in.PreferredChannel,
		Tags:             in.Tags,
		BirthDate:        in.BirthDate,
		Gender:           in.Gender,
		Active:           in.Active,
		MarketingOptIn:   in.MarketingOptIn,
		Unsubscribed:     in.Unsubscribed,
	}
}

// UpdateFields is the partial change-set for Update. Each field is a pointer:
// nil means "leave the stored value alone". This replaces the older
// zero-means-unset convention, which could not distinguish clearing a value
// from not sending one.
type UpdateFields struct {
	Email          *string `json:"email,omitempty"`
	SecondaryEmail *string `json:"secondary_email,omitempty"`
	FirstName      *string `json:"first_name,omitempty"`
	MiddleName     *string `json:"middle_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`

	MobilePhone *string `json:"mobile_phone,omitempty"`
	WorkPhone   *string `json:"work_phone,omitempty"`
	HomePhone   *string `json:"home_phone,omitempty"`

	CompanyName *string `json:"company_name,omitempty"`
	JobTitle    *string `json:"job_title,omitempty"`

	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         *string `json:"city,omitempty"`
	StateRegion  *string `json:"state_region,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	CountryCode  *string `json:"country_code,omitempty"`

	TimeZone         *string `json:"time_zone,omitempty"`
	Locale           *string `json:"locale,omitempty"`
	PreferredChannel *string `json:"preferred_channel,omitempty"`
	Tags             *string `json:"tags,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    *string    `json:"gender,omitempty"`

	Active         *bool `json:"active,omitempty"`
	MarketingOptIn *bool `json:"marketing_opt_in,omitempty"`
	Unsubscribed   *bool `json:"unsubscribed,omitempty"`

	// System-driven fields; settable explicitly for imports and backfills.
	BounceCount      *int       `json:"bounce_count,omitempty"`
	MarketingOptInAt *time.Time `json:"marketing_opt_in_at,omitempty"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty"`
	LastEmailedAt    *time.Time `json:"last_emailed_at,omitempty"`
	LastOpenedAt     *time.Time `json:"last_opened_at,omitempty"`
	LastClickedAt    *time.Time `json:"last_clicked_at,omitempty"`
	LastActivityAt   *time.Time `json:"last_activity_at,omitempty"`
}

func (u UpdateFields) apply(c *domain.Contact) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&c.Email, u.Email)
	setStr(&c.SecondaryEmail, u.SecondaryEmail)
	setStr(&c.FirstName, u.FirstName)
	setStr(&c.MiddleName, u.MiddleName)
	setStr(&c.LastName, u.LastName)
	setStr(&c.MobilePhone, u.MobilePhone)
	setStr(&c.WorkPhone, u.WorkPhone)
	setStr(&c.HomePhone, u.HomePhone)
	setStr(&c.CompanyName, u.CompanyName)
	setStr(&c.JobTitle, u.JobTitle)
	setStr(&c.AddressLine1, u.AddressLine1)
	setStr(&c.AddressLine2, u.AddressLine2)
	setStr(&c.City, u.City)
	setStr(&c.StateRegion, u.StateRegion)
	setStr(&c.PostalCode, u.PostalCode)
	setStr(&c.CountryCode, u.CountryCode)
	setStr(&c.TimeZone, u.TimeZone)
	setStr(&c.Locale, u.Locale)
	setStr(&c.PreferredChannel, u.PreferredChannel)
	setStr(&c.Tags, u.Tags)
	setStr(&c.Gender, u.Gender)

	if u.BirthDate != nil {
		t := *u.BirthDate
		c.BirthDate = &t
	}
	if u.Active != nil {
		c.Active = *u.Active
	}
	if u.MarketingOptIn != nil {
		c.MarketingOptIn = *u.MarketingOptIn
	}
	if u.Unsubscribed != nil {
		c.Unsubscribed = *u.Unsubscribed
	}
	if u.BounceCount != nil {
		c.BounceCount = *u.BounceCount
	}
	setTime := func(dst **time.Time, src *time.Time) {
		if src != nil {
			t := *src
			*dst = &t
		}
	}
	setTime(&c.MarketingOptInAt, u.MarketingOptInAt)
	setTime(&c.UnsubscribedAt, u.UnsubscribedAt)
	setTime(&c.LastEmailedAt, u.LastEmailedAt)
	setTime(&c.LastOpenedAt, u.LastOpenedAt)
	setTime(&c.LastClickedAt, u.LastClickedAt)
	setTime(&c.LastActivityAt, u.LastActivityAt)
}

// normalize trims surrounding whitespace from every free-form string field
// and canonicalizes the tag list.
func normalize(c *domain.Contact) {
	for _, p := range []*string{
		&c.Email, &c.SecondaryEmail,
		&c.FirstName, &c.MiddleName, &c.LastName,
		&c.MobilePhone, &c.WorkPhone, &c.HomePhone,
		&c.CompanyName, &c.JobTitle,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.StateRegion, &c.PostalCode, &c.CountryCode,
		&c.TimeZone, &c.Locale, &c.PreferredChannel,
		&c.Tags, &c.Gender,
	} {
		*p = strings.TrimSpace(*p)
	}
	c.Tags = canonicalTags(c.Tags)
}

// canonicalTags strips whitespace around delimiters and drops empty
// segments, so "vip, gold" is stored as "vip,gold". Token matching relies
// on this: every backend compares stored tokens untrimmed.
func canonicalTags(tags string) string {
	if tags == "" {
		return ""
	}
	parts := strings.Split(tags, domain.TagDelimiter)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, domain.TagDelimiter)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid marks validation failures. Callers detect it with errors.Is.
var ErrInvalid = errors.New("invalid contact")

// TagDelimiter separates tags inside Contact.Tags. Tag values must not
// contain it.
const TagDelimiter = ","

// Contact represents a single person or organization record in the directory.
type Contact struct {
	ID string `json:"id" db:"id"`

	// Primary email is required and unique (case-insensitive at the store).
	Email          string `json:"email" db:"email"`
	SecondaryEmail string `json:"secondary_email,omitempty" db:"secondary_email"`

	FirstName  string `json:"first_name,omitempty" db:"first_name"`
	MiddleName string `json:"middle_name,omitempty" db:"middle_name"`
	LastName   string `json:"last_name,omitempty" db:"last_name"`

	MobilePhone string `json:"mobile_phone,omitempty" db:"mobile_phone"`
	WorkPhone   string `json:"work_phone,omitempty" db:"work_phone"`
	HomePhone   string `json:"home_phone,omitempty" db:"home_phone"`

	CompanyName string `json:"company_name,omitempty" db:"company_name"`
	JobTitle    string `json:"job_title,omitempty" db:"job_title"`

	AddressLine1 string `json:"address_line1,omitempty" db:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty" db:"address_line2"`
	City         string `json:"city,omitempty" db:"city"`
	StateRegion  string `json:"state_region,omitempty" db:"state_region"`
	PostalCode   string `json:"postal_code,omitempty" db:"postal_code"`
	// ISO 3166-1 alpha-2.
	CountryCode string `json:"country_code,omitempty" db:"country_code"`

	TimeZone         string `json:"time_zone,omitempty" db:"time_zone"`
	Locale           string `json:"locale,omitempty" db:"locale"`
	PreferredChannel string `json:"preferred_channel,omitempty" db:"preferred_channel"`

	// Tags is a comma-joined tag list, e.g. "vip,gold".
	Tags string `json:"tags,omitempty" db:"tags"`

	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Gender    string     `json:"gender,omitempty" db:"gender"`

	Active           bool       `json:"active" db:"is_active"`
	MarketingOptIn   bool       `json:"marketing_opt_in" db:"marketing_opt_in"`
	MarketingOptInAt *time.Time `json:"marketing_opt_in_at,omitempty" db:"marketing_opt_in_at"`
	Unsubscribed     bool       `json:"unsubscribed" db:"unsubscribed"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
	BounceCount      int        `json:"bounce_count" db:"bounce_count"`

	LastEmailedAt  *time.Time `json:"last_emailed_at,omitempty" db:"last_emailed_at"`
	LastOpenedAt   *time.Time `json:"last_opened_at,omitempty" db:"last_opened_at"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty" db:"last_clicked_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty" db:"last_activity_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the invariants every stored contact must satisfy.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if c.BounceCount < 0 {
		return fmt.Errorf("%w: bounce count must not be negative", ErrInvalid)
	}
	return nil
}

// TagList splits the delimited tag string into individual tags.
// Empty segments are dropped.
func (c *Contact) TagList() []string {
	if c.Tags == "" {
		return nil
	}
	parts := strings.Split(c.Tags, TagDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FullName joins the present name parts with single spaces.
func (c *Contact) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.FirstName, c.MiddleName, c.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

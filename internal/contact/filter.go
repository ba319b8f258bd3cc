package contact

import (
	"strings"
	"time"

	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// Filter is the sparse, multi-criteria search input. Every criterion is
// optional: a blank string or nil pointer means "do not filter on this
// field", never "match empty". Range bounds are independent; when both are
// present the effect is an inclusive range.
type Filter struct {
	// identity / basic
	Email          string `json:"email,omitempty"`
	SecondaryEmail string `json:"secondary_email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	MiddleName     string `json:"middle_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`

	// phones
	MobilePhone string `json:"mobile_phone,omitempty"`
	WorkPhone   string `json:"work_phone,omitempty"`
	HomePhone   string `json:"home_phone,omitempty"`

	// company / job
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`

	// address
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	StateRegion  string `json:"state_region,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
	CountryCode  string `json:"country_code,omitempty"`

	// profile
	TimeZone         string `json:"time_zone,omitempty"`
	Locale           string `json:"locale,omitempty"`
	PreferredChannel string `json:"preferred_channel,omitempty"`
	// Tag matches a single whole tag; TagsContains is a substring search
	// across the whole tag list.
	Tag          string `json:"tag,omitempty"`
	TagsContains string `json:"tags_contains,omitempty"`

	// demographics
	BirthDateFrom *time.Time `json:"birth_date_from,omitempty"`
	BirthDateTo   *time.Time `json:"birth_date_to,omitempty"`
	Gender        string     `json:"gender,omitempty"`

	// consent / engagement
	Active         *bool `json:"active,omitempty"`
	MarketingOptIn *bool `json:"marketing_opt_in,omitempty"`
	Unsubscribed   *bool `json:"unsubscribed,omitempty"`
	MinBounceCount *int  `json:"min_bounce_count,omitempty"`
	MaxBounceCount *int  `json:"max_bounce_count,omitempty"`

	CreatedFrom      *time.Time `json:"created_from,omitempty"`
	CreatedTo        *time.Time `json:"created_to,omitempty"`
	LastActivityFrom *time.Time `json:"last_activity_from,omitempty"`
	LastActivityTo   *time.Time `json:"last_activity_to,omitempty"`
	LastEmailedFrom  *time.Time `json:"last_emailed_from,omitempty"`
	LastEmailedTo    *time.Time `json:"last_emailed_to,omitempty"`
	LastOpenedFrom   *time.Time `json:"last_opened_from,omitempty"`
	LastOpenedTo     *time.Time `json:"last_opened_to,omitempty"`
	LastClickedFrom  *time.Time `json:"last_clicked_from,omitempty"`
	LastClickedTo    *time.Time `json:"last_clicked_to,omitempty"`

	// FreeText is a case-insensitive "contains" OR-ed across email,
	// secondary email, first name, last name, company name and tags.
	FreeText string `json:"free_text,omitempty"`
}

// freeTextFields is the fixed column set the FreeText criterion searches.
var freeTextFields = []query.Field{
	FieldEmail,
	FieldSecondaryEmail,
	FieldFirstName,
	FieldLastName,
	FieldCompanyName,
	FieldTags,
}

// Compile converts the filter into a backend-neutral condition tree. Present
// criteria are AND-ed; the free-text criterion contributes a single OR group.
// Compile is pure and never fails: criteria are already validated scalars.
func (f Filter) Compile() query.Node {
	var n query.Node

	and := func(field query.Field, op query.Op, value any) {
		n.Conds = append(n.Conds, query.Cond{Field: field, Op: op, Value: value})
	}
	text := func(field query.Field, op query.Op, value string) {
		if v := strings.TrimSpace(value); v != "" {
			and(field, op, v)
		}
	}

	// Exact: primary/secondary email. Case-insensitive uniqueness is a
	// store concern, not a filter concern.
	text(FieldEmail, query.OpEq, f.Email)
	text(FieldSecondaryEmail, query.OpEq, f.SecondaryEmail)

	// Case-insensitive contains: names, company, job, phones, address.
	text(FieldFirstName, query.OpContainsFold, f.FirstName)
	text(FieldMiddleName, query.OpContainsFold, f.MiddleName)
	text(FieldLastName, query.OpContainsFold, f.LastName)
	text(FieldCompanyName, query.OpContainsFold, f.CompanyName)
	text(FieldJobTitle, query.OpContainsFold, f.JobTitle)
	text(FieldMobilePhone, query.OpContainsFold, f.MobilePhone)
	text(FieldWorkPhone, query.OpContainsFold, f.WorkPhone)
	text(FieldHomePhone, query.OpContainsFold, f.HomePhone)
	text(FieldAddressLine1, query.OpContainsFold, f.AddressLine1)
	text(FieldAddressLine2, query.OpContainsFold, f.AddressLine2)
	text(FieldCity, query.OpContainsFold, f.City)
	text(FieldStateRegion, query.OpContainsFold, f.StateRegion)
	text(FieldPostalCode, query.OpContainsFold, f.PostalCode)

	// Enumerated-like: case-insensitive equality on every backend.
	text(FieldCountryCode, query.OpEqFold, f.CountryCode)
	text(FieldGender, query.OpEqFold, f.Gender)

	// Profile: exact match.
	text(FieldTimeZone, query.OpEq, f.TimeZone)
	text(FieldLocale, query.OpEq, f.Locale)
	text(FieldPreferredChannel, query.OpEq, f.PreferredChannel)

	// Tags: whole-token match for Tag, substring for TagsContains.
	text(FieldTags, query.OpHasToken, f.Tag)
	text(FieldTags, query.OpContainsFold, f.TagsContains)

	if f.BirthDateFrom != nil {
		and(FieldBirthDate, query.OpGte, *f.BirthDateFrom)
	}
	if f.BirthDateTo != nil {
		and(FieldBirthDate, query.OpLte, *f.BirthDateTo)
	}

	if f.Active != nil {
		and(FieldActive, query.OpEq, *f.Active)
	}
	if f.MarketingOptIn != nil {
		and(FieldMarketingOptIn, query.OpEq, *f.MarketingOptIn)
	}
	if f.Unsubscribed != nil {
		and(FieldUnsubscribed, query.OpEq, *f.Unsubscribed)
	}
	if f.MinBounceCount != nil {
		and(FieldBounceCount, query.OpGte, *f.MinBounceCount)
	}
	if f.MaxBounceCount != nil {
		and(FieldBounceCount, query.OpLte, *f.MaxBounceCount)
	}

	timeRange := func(field query.Field, from, to *time.Time) {
		if from != nil {
			and(field, query.OpGte, *from)
		}
		if to != nil {
			and(field, query.OpLte, *to)
		}
	}
	timeRange(FieldCreatedAt, f.CreatedFrom, f.CreatedTo)
	timeRange(FieldLastActivityAt, f.LastActivityFrom, f.LastActivityTo)
	timeRange(FieldLastEmailedAt, f.LastEmailedFrom, f.LastEmailedTo)
	timeRange(FieldLastOpenedAt, f.LastOpenedFrom, f.LastOpenedTo)
	timeRange(FieldLastClickedAt, f.LastClickedFrom, f.LastClickedTo)

	if v := strings.TrimSpace(f.FreeText); v != "" {
		or := query.Node{Or: true}
		for _, field := range freeTextFields {
			or.Conds = append(or.Conds, query.Cond{Field: field, Op: query.OpContainsFold, Value: v})
		}
		n.Groups = append(n.Groups, or)
	}

	return n
}

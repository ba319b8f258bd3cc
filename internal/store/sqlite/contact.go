// Package sqlite implements contact.Store against SQLite via modernc.org/sqlite.
//
// It renders the same backend-neutral condition tree the Postgres adapter
// consumes, with SQLite idioms: ? placeholders, LOWER(...) LIKE in place of
// ILIKE, and timestamps stored as fixed-width UTC text so that range
// comparisons stay lexicographic.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// Timestamps are stored as UTC text in these fixed-width layouts. Second
// precision keeps the encoding length-stable, which keeps <=/>= on the
// encoded text equivalent to the same comparison on the instants.
const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

var columns = map[query.Field]string{
	contact.FieldEmail:            "email",
	contact.FieldSecondaryEmail:   "secondary_email",
	contact.FieldFirstName:        "first_name",
	contact.FieldMiddleName:       "middle_name",
	contact.FieldLastName:         "last_name",
	contact.FieldMobilePhone:      "mobile_phone",
	contact.FieldWorkPhone:        "work_phone",
	contact.FieldHomePhone:        "home_phone",
	contact.FieldCompanyName:      "company_name",
	contact.FieldJobTitle:         "job_title",
	contact.FieldAddressLine1:     "address_line1",
	contact.FieldAddressLine2:     "address_line2",
	contact.FieldCity:             "city",
	contact.FieldStateRegion:      "state_region",
	contact.FieldPostalCode:       "postal_code",
	contact.FieldCountryCode:      "country_code",
	contact.FieldTimeZone:         "time_zone",
	contact.FieldLocale:           "locale",
	contact.FieldPreferredChannel: "preferred_channel",
	contact.FieldTags:             "tags",
	contact.FieldBirthDate:        "birth_date",
	contact.FieldGender:           "gender",
	contact.FieldActive:           "is_active",
	contact.FieldMarketingOptIn:   "marketing_opt_in",
	contact.FieldUnsubscribed:     "unsubscribed",
	contact.FieldBounceCount:      "bounce_count",
	contact.FieldCreatedAt:        "created_at",
	contact.FieldLastActivityAt:   "last_activity_at",
	contact.FieldLastEmailedAt:    "last_emailed_at",
	contact.FieldLastOpenedAt:     "last_opened_at",
	contact.FieldLastClickedAt:    "last_clicked_at",
}

// dateFields use the short date layout instead of the timestamp layout.
var dateFields = map[query.Field]bool{
	contact.FieldBirthDate: true,
}

const contactColumns = `id, email, secondary_email, first_name, middle_name, last_name,
	mobile_phone, work_phone, home_phone, company_name, job_title,
	address_line1, address_line2, city, state_region, postal_code, country_code,
	time_zone, locale, preferred_channel, tags, birth_date, gender,
	is_active, marketing_opt_in, marketing_opt_in_at, unsubscribed, unsubscribed_at,
	bounce_count, last_emailed_at, last_opened_at, last_clicked_at, last_activity_at,
	created_at, updated_at`

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	secondary_email TEXT,
	first_name TEXT,
	middle_name TEXT,
	last_name TEXT,
	mobile_phone TEXT,
	work_phone TEXT,
	home_phone TEXT,
	company_name TEXT,
	job_title TEXT,
	address_line1 TEXT,
	address_line2 TEXT,
	city TEXT,
	state_region TEXT,
	postal_code TEXT,
	country_code TEXT,
	time_zone TEXT,
	locale TEXT,
	preferred_channel TEXT,
	tags TEXT,
	birth_date TEXT,
	gender TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	marketing_opt_in INTEGER NOT NULL DEFAULT 0,
	marketing_opt_in_at TEXT,
	unsubscribed INTEGER NOT NULL DEFAULT 0,
	unsubscribed_at TEXT,
	bounce_count INTEGER NOT NULL DEFAULT 0,
	last_emailed_at TEXT,
	last_opened_at TEXT,
	last_clicked_at TEXT,
	last_activity_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_last_first ON contacts(last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_contacts_company ON contacts(company_name);
CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at);
CREATE INDEX IF NOT EXISTS idx_contacts_last_activity_at ON contacts(last_activity_at);
`

// ContactStore implements contact.Store against SQLite.
type ContactStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*ContactStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &ContactStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (r *ContactStore) Close() error { return r.db.Close() }

func (r *ContactStore) CountMatching(ctx context.Context, cond query.Node) (int64, error) {
	where, args, err := buildWhere(cond)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts WHERE `+where, args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (r *ContactStore) FetchMatching(ctx context.Context, cond query.Node, order []query.OrderKey, offset int64, limit int) ([]domain.Contact, error) {
	where, args, err := buildWhere(cond)
	if err != nil {
		return nil, err
	}
	orderBy, err := buildOrderBy(order)
	if err != nil {
		return nil, err
	}
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	// Timestamps are second-precision text, so whole batches can tie on the
	// default key; id as the final tie-break keeps pagination stable.
	orderBy += ", id ASC"

	q := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + where +
		` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ContactStore) Save(ctx context.Context, c *domain.Contact) error {
	now := r.now().Truncate(time.Second)
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			secondary_email = excluded.secondary_email,
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name,
			mobile_phone = excluded.mobile_phone,
			work_phone = excluded.work_phone,
			home_phone = excluded.home_phone,
			company_name = excluded.company_name,
			job_title = excluded.job_title,
			address_line1 = excluded.address_line1,
			address_line2 = excluded.address_line2,
			city = excluded.city,
			state_region = excluded.state_region,
			postal_code = excluded.postal_code,
			country_code = excluded.country_code,
			time_zone = excluded.time_zone,
			locale = excluded.locale,
			preferred_channel = excluded.preferred_channel,
			tags = excluded.tags,
			birth_date = excluded.birth_date,
			gender = excluded.gender,
			is_active = excluded.is_active,
			marketing_opt_in = excluded.marketing_opt_in,
			marketing_opt_in_at = excluded.marketing_opt_in_at,
			unsubscribed = excluded.unsubscribed,
			unsubscribed_at = excluded.unsubscribed_at,
			bounce_count = excluded.bounce_count,
			last_emailed_at = excluded.last_emailed_at,
			last_opened_at = excluded.last_opened_at,
			last_clicked_at = excluded.last_clicked_at,
			last_activity_at = excluded.last_activity_at,
			updated_at = excluded.updated_at
	`,
		c.ID, c.Email, nullStr(c.SecondaryEmail), nullStr(c.FirstName), nullStr(c.MiddleName), nullStr(c.LastName),
		nullStr(c.MobilePhone), nullStr(c.WorkPhone), nullStr(c.HomePhone), nullStr(c.CompanyName), nullStr(c.JobTitle),
		nullStr(c.AddressLine1), nullStr(c.AddressLine2), nullStr(c.City), nullStr(c.StateRegion), nullStr(c.PostalCode), nullStr(c.CountryCode),
		nullStr(c.TimeZone), nullStr(c.Locale), nullStr(c.PreferredChannel), nullStr(c.Tags), encodeDatePtr(c.BirthDate), nullStr(c.Gender),
		c.Active, c.MarketingOptIn, encodeTimePtr(c.MarketingOptInAt), c.Unsubscribed, encodeTimePtr(c.UnsubscribedAt),
		c.BounceCount, encodeTimePtr(c.LastEmailedAt), encodeTimePtr(c.LastOpenedAt), encodeTimePtr(c.LastClickedAt), encodeTimePtr(c.LastActivityAt),
		encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

func (r *ContactStore) FindByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id,
	)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contact.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact %s: %w", id, err)
	}
	return c, nil
}

func (r *ContactStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	return nil
}

func (r *ContactStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contacts WHERE id = ?)`, id,
	).Scan(&exists)
	return exists, err
}

// ---------------- condition rendering ----------------

func buildWhere(n query.Node) (string, []any, error) {
	clause, args, err := buildGroup(n)
	if err != nil {
		return "", nil, err
	}
	if clause == "" {
		return "1=1", nil, nil
	}
	return clause, args, nil
}

func buildGroup(n query.Node) (string, []any, error) {
	var (
		parts []string
		args  []any
	)
	for _, cond := range n.Conds {
		clause, condArgs, err := buildCond(cond)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
		args = append(args, condArgs...)
	}
	for _, g := range n.Groups {
		sub, subArgs, err := buildGroup(g)
		if err != nil {
			return "", nil, err
		}
		if sub != "" {
			parts = append(parts, "("+sub+")")
			args = append(args, subArgs...)
		}
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	operator := " AND "
	if n.Or {
		operator = " OR "
	}
	return strings.Join(parts, operator), args, nil
}

func buildCond(cond query.Cond) (string, []any, error) {
	col, ok := columns[cond.Field]
	if !ok {
		return "", nil, fmt.Errorf("sqlite: unknown field %q", cond.Field)
	}

	switch cond.Op {
	case query.OpEq:
		return col + " = ?", []any{encodeValue(cond.Field, cond.Value)}, nil
	case query.OpEqFold:
		return "LOWER(" + col + ") = LOWER(?)", []any{cond.Value}, nil
	case query.OpContainsFold:
		v, ok := cond.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("sqlite: contains needs a string, got %T", cond.Value)
		}
		return "LOWER(" + col + `) LIKE ? ESCAPE '\'`, []any{"%" + escapeLike(strings.ToLower(v)) + "%"}, nil
	case query.OpHasToken:
		v, ok := cond.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("sqlite: token match needs a string, got %T", cond.Value)
		}
		pattern := "%," + escapeLike(strings.ToLower(strings.TrimSpace(v))) + ",%"
		return "(',' || LOWER(" + col + `) || ',') LIKE ? ESCAPE '\'`, []any{pattern}, nil
	case query.OpGte:
		return col + " >= ?", []any{encodeValue(cond.Field, cond.Value)}, nil
	case query.OpLte:
		return col + " <= ?", []any{encodeValue(cond.Field, cond.Value)}, nil
	default:
		return "", nil, fmt.Errorf("sqlite: unsupported operator %d", cond.Op)
	}
}

// escapeLike neutralizes LIKE metacharacters so a filter value always
// matches literally, the way the in-memory evaluator does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func buildOrderBy(order []query.OrderKey) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, key := range order {
		col, ok := columns[key.Field]
		if !ok {
			return "", fmt.Errorf("sqlite: unknown sort field %q", key.Field)
		}
		dir := "ASC"
		if key.Direction == query.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// ---------------- value encoding ----------------

func encodeValue(f query.Field, v any) any {
	if t, ok := v.(time.Time); ok {
		if dateFields[f] {
			return t.UTC().Format(dateLayout)
		}
		return encodeTime(t)
	}
	return v
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func encodeDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func decodeTime(s string) (time.Time, error) {
	if len(s) == len(dateLayout) {
		return time.ParseInLocation(dateLayout, s, time.UTC)
	}
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ---------------- scanning ----------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c domain.Contact

		secondaryEmail, firstName, middleName, lastName  sql.NullString
		mobilePhone, workPhone, homePhone                sql.NullString
		companyName, jobTitle                            sql.NullString
		addressLine1, addressLine2, city, stateRegion    sql.NullString
		postalCode, countryCode                          sql.NullString
		timeZone, locale, preferredChannel, tags, gender sql.NullString

		birthDate, marketingOptInAt, unsubscribedAt sql.NullString
		lastEmailedAt, lastOpenedAt, lastClickedAt  sql.NullString
		lastActivityAt                              sql.NullString
		createdAt, updatedAt                        string
	)

	err := row.Scan(
		&c.ID, &c.Email, &secondaryEmail, &firstName, &middleName, &lastName,
		&mobilePhone, &workPhone, &homePhone, &companyName, &jobTitle,
		&addressLine1, &addressLine2, &city, &stateRegion, &postalCode, &countryCode,
		&timeZone, &locale, &preferredChannel, &tags, &birthDate, &gender,
		&c.Active, &c.MarketingOptIn, &marketingOptInAt, &c.Unsubscribed, &unsubscribedAt,
		&c.BounceCount, &lastEmailedAt, &lastOpenedAt, &lastClickedAt, &lastActivityAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.SecondaryEmail = secondaryEmail.String
	c.FirstName = firstName.String
	c.MiddleName = middleName.String
	c.LastName = lastName.String
	c.MobilePhone = mobilePhone.String
	c.WorkPhone = workPhone.String
	c.HomePhone = homePhone.String
	c.CompanyName = companyName.String
	c.JobTitle = jobTitle.String
	c.AddressLine1 = addressLine1.String
	c.AddressLine2 = addressLine2.String
	c.City = city.String
	c.StateRegion = stateRegion.String
	c.PostalCode = postalCode.String
	c.CountryCode = countryCode.String
	c.TimeZone = timeZone.String
	c.Locale = locale.String
	c.PreferredChannel = preferredChannel.String
	c.Tags = tags.String
	c.Gender = gender.String

	if c.BirthDate, err = decodeTimePtr(birthDate); err != nil {
		return nil, err
	}
	if c.MarketingOptInAt, err = decodeTimePtr(marketingOptInAt); err != nil {
		return nil, err
	}
	if c.UnsubscribedAt, err = decodeTimePtr(unsubscribedAt); err != nil {
		return nil, err
	}
	if c.LastEmailedAt, err = decodeTimePtr(lastEmailedAt); err != nil {
		return nil, err
	}
	if c.LastOpenedAt, err = decodeTimePtr(lastOpenedAt); err != nil {
		return nil, err
	}
	if c.LastClickedAt, err = decodeTimePtr(lastClickedAt); err != nil {
		return nil, err
	}
	if c.LastActivityAt, err = decodeTimePtr(lastActivityAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

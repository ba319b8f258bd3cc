// Package postgres implements contact.Store against PostgreSQL.
//
// Conditions arrive as a backend-neutral tree and are rendered into a
// parameterized WHERE clause; no caller-supplied string is ever interpolated
// into SQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/domain"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

const contactColumns = `id, email, secondary_email, first_name, middle_name, last_name,
	mobile_phone, work_phone, home_phone, company_name, job_title,
	address_line1, address_line2, city, state_region, postal_code, country_code,
	time_zone, locale, preferred_channel, tags, birth_date, gender,
	is_active, marketing_opt_in, marketing_opt_in_at, unsubscribed, unsubscribed_at,
	bounce_count, last_emailed_at, last_opened_at, last_clicked_at, last_activity_at,
	created_at, updated_at`

// ContactStore implements contact.Store against PostgreSQL.
type ContactStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewContactStore creates a Postgres-backed contact store.
func NewContactStore(db *sql.DB) *ContactStore {
	return &ContactStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ContactStore) CountMatching(ctx context.Context, cond query.Node) (int64, error) {
	qb := newQueryBuilder()
	where, err := qb.buildWhere(cond)
	if err != nil {
		return 0, err
	}

	var n int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contacts WHERE `+where, qb.args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (r *ContactStore) FetchMatching(ctx context.Context, cond query.Node, order []query.OrderKey, offset int64, limit int) ([]domain.Contact, error) {
	qb := newQueryBuilder()
	where, err := qb.buildWhere(cond)
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
	// id as the final tie-break keeps the window stable when the requested
	// keys tie, so pages never repeat or drop rows between requests.
	orderBy += ", id ASC"

	q := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + where +
		` ORDER BY ` + orderBy +
		` OFFSET ` + qb.nextArg(offset) + ` LIMIT ` + qb.nextArg(limit)

	rows, err := r.db.QueryContext(ctx, q, qb.args...)
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
	now := r.now()
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			secondary_email = EXCLUDED.secondary_email,
			first_name = EXCLUDED.first_name,
			middle_name = EXCLUDED.middle_name,
			last_name = EXCLUDED.last_name,
			mobile_phone = EXCLUDED.mobile_phone,
			work_phone = EXCLUDED.work_phone,
			home_phone = EXCLUDED.home_phone,
			company_name = EXCLUDED.company_name,
			job_title = EXCLUDED.job_title,
			address_line1 = EXCLUDED.address_line1,
			address_line2 = EXCLUDED.address_line2,
			city = EXCLUDED.city,
			state_region = EXCLUDED.state_region,
			postal_code = EXCLUDED.postal_code,
			country_code = EXCLUDED.country_code,
			time_zone = EXCLUDED.time_zone,
			locale = EXCLUDED.locale,
			preferred_channel = EXCLUDED.preferred_channel,
			tags = EXCLUDED.tags,
			birth_date = EXCLUDED.birth_date,
			gender = EXCLUDED.gender,
			is_active = EXCLUDED.is_active,
			marketing_opt_in = EXCLUDED.marketing_opt_in,
			marketing_opt_in_at = EXCLUDED.marketing_opt_in_at,
			unsubscribed = EXCLUDED.unsubscribed,
			unsubscribed_at = EXCLUDED.unsubscribed_at,
			bounce_count = EXCLUDED.bounce_count,
			last_emailed_at = EXCLUDED.last_emailed_at,
			last_opened_at = EXCLUDED.last_opened_at,
			last_clicked_at = EXCLUDED.last_clicked_at,
			last_activity_at = EXCLUDED.last_activity_at,
			updated_at = EXCLUDED.updated_at
	`,
		c.ID, c.Email, nullStr(c.SecondaryEmail), nullStr(c.FirstName), nullStr(c.MiddleName), nullStr(c.LastName),
		nullStr(c.MobilePhone), nullStr(c.WorkPhone), nullStr(c.HomePhone), nullStr(c.CompanyName), nullStr(c.JobTitle),
		nullStr(c.AddressLine1), nullStr(c.AddressLine2), nullStr(c.City), nullStr(c.StateRegion), nullStr(c.PostalCode), nullStr(c.CountryCode),
		nullStr(c.TimeZone), nullStr(c.Locale), nullStr(c.PreferredChannel), nullStr(c.Tags), c.BirthDate, nullStr(c.Gender),
		c.Active, c.MarketingOptIn, c.MarketingOptInAt, c.Unsubscribed, c.UnsubscribedAt,
		c.BounceCount, c.LastEmailedAt, c.LastOpenedAt, c.LastClickedAt, c.LastActivityAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save contact: %w", err)
	}
	return nil
}

func (r *ContactStore) FindByID(ctx context.Context, id string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id,
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
	// Deleting an absent id is a no-op, not an error.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	return nil
}

func (r *ContactStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c                                                    domain.Contact
		secondaryEmail, firstName, middleName, lastName      sql.NullString
		mobilePhone, workPhone, homePhone                    sql.NullString
		companyName, jobTitle                                sql.NullString
		addressLine1, addressLine2, city, stateRegion        sql.NullString
		postalCode, countryCode                              sql.NullString
		timeZone, locale, preferredChannel, tags, gender     sql.NullString
		birthDate, marketingOptInAt, unsubscribedAt          sql.NullTime
		lastEmailedAt, lastOpenedAt, lastClickedAt           sql.NullTime
		lastActivityAt                                       sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.Email, &secondaryEmail, &firstName, &middleName, &lastName,
		&mobilePhone, &workPhone, &homePhone, &companyName, &jobTitle,
		&addressLine1, &addressLine2, &city, &stateRegion, &postalCode, &countryCode,
		&timeZone, &locale, &preferredChannel, &tags, &birthDate, &gender,
		&c.Active, &c.MarketingOptIn, &marketingOptInAt, &c.Unsubscribed, &unsubscribedAt,
		&c.BounceCount, &lastEmailedAt, &lastOpenedAt, &lastClickedAt, &lastActivityAt,
		&c.CreatedAt, &c.UpdatedAt,
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
	c.BirthDate = timePtr(birthDate)
	c.MarketingOptInAt = timePtr(marketingOptInAt)
	c.UnsubscribedAt = timePtr(unsubscribedAt)
	c.LastEmailedAt = timePtr(lastEmailedAt)
	c.LastOpenedAt = timePtr(lastOpenedAt)
	c.LastClickedAt = timePtr(lastClickedAt)
	c.LastActivityAt = timePtr(lastActivityAt)
	return &c, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

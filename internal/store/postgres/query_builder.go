package postgres

import (
	"fmt"
	"strings"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// columns maps engine fields to contacts table columns. Only fields present
// here can ever appear in generated SQL; everything else is rejected.
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

// queryBuilder accumulates positional arguments while translating a
// condition tree into a parameterized WHERE clause.
type queryBuilder struct {
	args       []any
	argCounter int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{argCounter: 1}
}

// nextArg registers a value and returns its placeholder.
func (qb *queryBuilder) nextArg(value any) string {
	qb.args = append(qb.args, value)
	placeholder := fmt.Sprintf("$%d", qb.argCounter)
	qb.argCounter++
	return placeholder
}

// buildWhere renders the condition tree as a WHERE clause body.
// An empty tree matches everything.
func (qb *queryBuilder) buildWhere(n query.Node) (string, error) {
	clause, err := qb.buildGroup(n)
	if err != nil {
		return "", err
	}
	if clause == "" {
		return "1=1", nil
	}
	return clause, nil
}

func (qb *queryBuilder) buildGroup(n query.Node) (string, error) {
	parts := make([]string, 0, len(n.Conds)+len(n.Groups))

	for _, cond := range n.Conds {
		clause, err := qb.buildCond(cond)
		if err != nil {
			return "", err
		}
		parts = append(parts, clause)
	}
	for _, g := range n.Groups {
		sub, err := qb.buildGroup(g)
		if err != nil {
			return "", err
		}
		if sub != "" {
			parts = append(parts, "("+sub+")")
		}
	}

	if len(parts) == 0 {
		return "", nil
	}
	operator := " AND "
	if n.Or {
		operator = " OR "
	}
	return strings.Join(parts, operator), nil
}

func (qb *queryBuilder) buildCond(cond query.Cond) (string, error) {
	col, ok := columns[cond.Field]
	if !ok {
		return "", fmt.Errorf("postgres: unknown field %q", cond.Field)
	}

	switch cond.Op {
	case query.OpEq:
		return fmt.Sprintf("%s = %s", col, qb.nextArg(cond.Value)), nil
	case query.OpEqFold:
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, qb.nextArg(cond.Value)), nil
	case query.OpContainsFold:
		v, ok := cond.Value.(string)
		if !ok {
			return "", fmt.Errorf("postgres: contains needs a string, got %T", cond.Value)
		}
		return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, col, qb.nextArg("%"+escapeLike(v)+"%")), nil
	case query.OpHasToken:
		v, ok := cond.Value.(string)
		if !ok {
			return "", fmt.Errorf("postgres: token match needs a string, got %T", cond.Value)
		}
		// Wrap both sides with delimiters so tokens match whole, never as a
		// substring of a neighboring tag.
		pattern := "%," + escapeLike(strings.ToLower(strings.TrimSpace(v))) + ",%"
		return fmt.Sprintf(`(',' || LOWER(%s) || ',') LIKE %s ESCAPE '\'`, col, qb.nextArg(pattern)), nil
	case query.OpGte:
		return fmt.Sprintf("%s >= %s", col, qb.nextArg(cond.Value)), nil
	case query.OpLte:
		return fmt.Sprintf("%s <= %s", col, qb.nextArg(cond.Value)), nil
	default:
		return "", fmt.Errorf("postgres: unsupported operator %d", cond.Op)
	}
}

// escapeLike neutralizes LIKE metacharacters so a filter value always
// matches literally, the way the in-memory evaluator does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildOrderBy renders the validated order keys. Fields outside the column
// map are an error: the sort resolver should have dropped them already.
func buildOrderBy(order []query.OrderKey) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, key := range order {
		col, ok := columns[key.Field]
		if !ok {
			return "", fmt.Errorf("postgres: unknown sort field %q", key.Field)
		}
		dir := "ASC"
		if key.Direction == query.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

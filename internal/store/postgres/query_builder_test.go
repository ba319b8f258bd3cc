package postgres

import (
	"testing"
	"time"

	"github.com/dimitryivaniuta/contactdir/internal/contact"
	"github.com/dimitryivaniuta/contactdir/internal/query"
)

func TestBuildWhereEmptyTree(t *testing.T) {
	qb := newQueryBuilder()
	where, err := qb.buildWhere(query.Node{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if where != "1=1" {
		t.Errorf("got %q, want 1=1", where)
	}
	if len(qb.args) != 0 {
		t.Errorf("empty tree must produce no args, got %v", qb.args)
	}
}

func TestBuildCondRendering(t *testing.T) {
	when := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		cond    query.Cond
		want    string
		wantArg any
	}{
		{
			"equality",
			query.Cond{Field: contact.FieldEmail, Op: query.OpEq, Value: "a@b.com"},
			"email = $1", "a@b.com",
		},
		{
			"folded equality",
			query.Cond{Field: contact.FieldCountryCode, Op: query.OpEqFold, Value: "PL"},
			"LOWER(country_code) = LOWER($1)", "PL",
		},
		{
			"contains wraps wildcards",
			query.Cond{Field: contact.FieldLastName, Op: query.OpContainsFold, Value: "smith"},
			`last_name ILIKE $1 ESCAPE '\'`, "%smith%",
		},
		{
			"contains escapes percent",
			query.Cond{Field: contact.FieldFirstName, Op: query.OpContainsFold, Value: "a%z"},
			`first_name ILIKE $1 ESCAPE '\'`, `%a\%z%`,
		},
		{
			"contains escapes underscore and backslash",
			query.Cond{Field: contact.FieldCity, Op: query.OpContainsFold, Value: `ab_c\d`},
			`city ILIKE $1 ESCAPE '\'`, `%ab\_c\\d%`,
		},
		{
			"token wraps delimiters",
			query.Cond{Field: contact.FieldTags, Op: query.OpHasToken, Value: " VIP "},
			`(',' || LOWER(tags) || ',') LIKE $1 ESCAPE '\'`, "%,vip,%",
		},
		{
			"token escapes metacharacters",
			query.Cond{Field: contact.FieldTags, Op: query.OpHasToken, Value: "50%_off"},
			`(',' || LOWER(tags) || ',') LIKE $1 ESCAPE '\'`, `%,50\%\_off,%`,
		},
		{
			"lower bound",
			query.Cond{Field: contact.FieldCreatedAt, Op: query.OpGte, Value: when},
			"created_at >= $1", when,
		},
		{
			"upper bound",
			query.Cond{Field: contact.FieldBounceCount, Op: query.OpLte, Value: 5},
			"bounce_count <= $1", 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qb := newQueryBuilder()
			got, err := qb.buildCond(tt.cond)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("clause: got %q, want %q", got, tt.want)
			}
			if len(qb.args) != 1 || qb.args[0] != tt.wantArg {
				t.Errorf("args: got %v, want [%v]", qb.args, tt.wantArg)
			}
		})
	}
}

func TestBuildWhereOrGroup(t *testing.T) {
	n := query.Node{
		Conds: []query.Cond{
			{Field: contact.FieldCountryCode, Op: query.OpEqFold, Value: "pl"},
		},
		Groups: []query.Node{{
			Or: true,
			Conds: []query.Cond{
				{Field: contact.FieldFirstName, Op: query.OpContainsFold, Value: "ivan"},
				{Field: contact.FieldLastName, Op: query.OpContainsFold, Value: "ivan"},
			},
		}},
	}

	qb := newQueryBuilder()
	where, err := qb.buildWhere(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `LOWER(country_code) = LOWER($1) AND (first_name ILIKE $2 ESCAPE '\' OR last_name ILIKE $3 ESCAPE '\')`
	if where != want {
		t.Errorf("got %q, want %q", where, want)
	}
	if len(qb.args) != 3 {
		t.Errorf("got %d args, want 3", len(qb.args))
	}
}

func TestBuildWhereArgNumbering(t *testing.T) {
	n := query.Node{Conds: []query.Cond{
		{Field: contact.FieldEmail, Op: query.OpEq, Value: "a@b.com"},
		{Field: contact.FieldCity, Op: query.OpContainsFold, Value: "war"},
		{Field: contact.FieldBounceCount, Op: query.OpGte, Value: 1},
	}}

	qb := newQueryBuilder()
	where, err := qb.buildWhere(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `email = $1 AND city ILIKE $2 ESCAPE '\' AND bounce_count >= $3`
	if where != want {
		t.Errorf("got %q, want %q", where, want)
	}
}

func TestBuildCondUnknownField(t *testing.T) {
	qb := newQueryBuilder()
	if _, err := qb.buildCond(query.Cond{Field: "evil_col", Op: query.OpEq, Value: "x"}); err == nil {
		t.Error("expected an error for a field outside the column map")
	}
}

func TestBuildOrderBy(t *testing.T) {
	got, err := buildOrderBy([]query.OrderKey{
		{Field: contact.FieldLastName, Direction: query.Asc},
		{Field: contact.FieldCreatedAt, Direction: query.Desc},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "last_name ASC, created_at DESC" {
		t.Errorf("got %q", got)
	}

	if _, err := buildOrderBy([]query.OrderKey{{Field: "nope"}}); err == nil {
		t.Error("expected an error for an unknown sort field")
	}

	got, err = buildOrderBy(nil)
	if err != nil || got != "" {
		t.Errorf("empty order must render nothing, got %q err %v", got, err)
	}
}

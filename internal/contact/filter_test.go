package contact

import (
	"testing"
	"time"

	"github.com/dimitryivaniuta/contactdir/internal/query"
)

// findCond returns the first top-level condition on the given field and
// operator, or nil.
func findCond(n query.Node, f query.Field, op query.Op) *query.Cond {
	for i := range n.Conds {
		if n.Conds[i].Field == f && n.Conds[i].Op == op {
			return &n.Conds[i]
		}
	}
	return nil
}

func TestCompileEmptyFilter(t *testing.T) {
	n := Filter{}.Compile()
	if !n.Empty() {
		t.Errorf("empty filter compiled to non-empty node: %+v", n)
	}
}

func TestCompileBlankCriteriaIgnored(t *testing.T) {
	f := Filter{
		Email:     "   ",
		FirstName: "",
		City:      "\t",
		FreeText:  "  ",
	}
	n := f.Compile()
	if !n.Empty() {
		t.Errorf("blank criteria compiled to non-empty node: %+v", n)
	}
}

func TestCompileOperatorSelection(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		field  query.Field
		op     query.Op
		value  any
	}{
		{"email exact", Filter{Email: "a@b.com"}, FieldEmail, query.OpEq, "a@b.com"},
		{"secondary email exact", Filter{SecondaryEmail: "x@y.com"}, FieldSecondaryEmail, query.OpEq, "x@y.com"},
		{"first name contains", Filter{FirstName: "Iv"}, FieldFirstName, query.OpContainsFold, "Iv"},
		{"last name contains", Filter{LastName: "ova"}, FieldLastName, query.OpContainsFold, "ova"},
		{"company contains", Filter{CompanyName: "Acme"}, FieldCompanyName, query.OpContainsFold, "Acme"},
		{"phone contains", Filter{MobilePhone: "555"}, FieldMobilePhone, query.OpContainsFold, "555"},
		{"city contains", Filter{City: "Warsaw"}, FieldCity, query.OpContainsFold, "Warsaw"},
		{"country cases folded", Filter{CountryCode: "PL"}, FieldCountryCode, query.OpEqFold, "PL"},
		{"gender cases folded", Filter{Gender: "F"}, FieldGender, query.OpEqFold, "F"},
		{"time zone exact", Filter{TimeZone: "Europe/Warsaw"}, FieldTimeZone, query.OpEq, "Europe/Warsaw"},
		{"locale exact", Filter{Locale: "pl-PL"}, FieldLocale, query.OpEq, "pl-PL"},
		{"channel exact", Filter{PreferredChannel: "email"}, FieldPreferredChannel, query.OpEq, "email"},
		{"tag whole token", Filter{Tag: "vip"}, FieldTags, query.OpHasToken, "vip"},
		{"tags substring", Filter{TagsContains: "gol"}, FieldTags, query.OpContainsFold, "gol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.filter.Compile()
			if len(n.Conds) != 1 {
				t.Fatalf("expected 1 condition, got %d: %+v", len(n.Conds), n.Conds)
			}
			c := n.Conds[0]
			if c.Field != tt.field || c.Op != tt.op || c.Value != tt.value {
				t.Errorf("got {%s %d %v}, want {%s %d %v}", c.Field, c.Op, c.Value, tt.field, tt.op, tt.value)
			}
		})
	}
}

func TestCompileCriteriaValuesTrimmed(t *testing.T) {
	n := Filter{LastName: "  Smith "}.Compile()
	c := findCond(n, FieldLastName, query.OpContainsFold)
	if c == nil {
		t.Fatal("last name condition missing")
	}
	if c.Value != "Smith" {
		t.Errorf("value not trimmed: %q", c.Value)
	}
}

func TestCompileIndependentRangeBounds(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)

	t.Run("lower bound only", func(t *testing.T) {
		n := Filter{CreatedFrom: &from}.Compile()
		if len(n.Conds) != 1 {
			t.Fatalf("expected 1 condition, got %d", len(n.Conds))
		}
		if c := findCond(n, FieldCreatedAt, query.OpGte); c == nil || c.Value != from {
			t.Errorf("lower bound missing or wrong: %+v", n.Conds)
		}
	})

	t.Run("upper bound only", func(t *testing.T) {
		n := Filter{CreatedTo: &to}.Compile()
		if len(n.Conds) != 1 {
			t.Fatalf("expected 1 condition, got %d", len(n.Conds))
		}
		if c := findCond(n, FieldCreatedAt, query.OpLte); c == nil || c.Value != to {
			t.Errorf("upper bound missing or wrong: %+v", n.Conds)
		}
	})

	t.Run("both bounds", func(t *testing.T) {
		n := Filter{CreatedFrom: &from, CreatedTo: &to}.Compile()
		if len(n.Conds) != 2 {
			t.Fatalf("expected 2 conditions, got %d", len(n.Conds))
		}
		if findCond(n, FieldCreatedAt, query.OpGte) == nil || findCond(n, FieldCreatedAt, query.OpLte) == nil {
			t.Errorf("range bounds missing: %+v", n.Conds)
		}
	})
}

func TestCompileBounceCountBounds(t *testing.T) {
	min, max := 1, 5
	n := Filter{MinBounceCount: &min, MaxBounceCount: &max}.Compile()
	lo := findCond(n, FieldBounceCount, query.OpGte)
	hi := findCond(n, FieldBounceCount, query.OpLte)
	if lo == nil || lo.Value != 1 {
		t.Errorf("min bound missing or wrong: %+v", lo)
	}
	if hi == nil || hi.Value != 5 {
		t.Errorf("max bound missing or wrong: %+v", hi)
	}
}

func TestCompileZeroBoundIsPresent(t *testing.T) {
	// A pointer to zero is a real criterion, not an absent one.
	zero := 0
	n := Filter{MinBounceCount: &zero}.Compile()
	c := findCond(n, FieldBounceCount, query.OpGte)
	if c == nil || c.Value != 0 {
		t.Errorf("zero bound dropped: %+v", n.Conds)
	}
}

func TestCompileBooleanCriteria(t *testing.T) {
	active := true
	unsub := false
	n := Filter{Active: &active, Unsubscribed: &unsub}.Compile()
	if c := findCond(n, FieldActive, query.OpEq); c == nil || c.Value != true {
		t.Errorf("active criterion missing or wrong")
	}
	if c := findCond(n, FieldUnsubscribed, query.OpEq); c == nil || c.Value != false {
		t.Errorf("unsubscribed criterion missing or wrong")
	}
}

func TestCompileFreeTextGroup(t *testing.T) {
	n := Filter{FreeText: "ivan"}.Compile()
	if len(n.Conds) != 0 {
		t.Errorf("free text must not add top-level conditions: %+v", n.Conds)
	}
	if len(n.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(n.Groups))
	}
	g := n.Groups[0]
	if !g.Or {
		t.Error("free text group must be OR-joined")
	}
	if len(g.Conds) != len(freeTextFields) {
		t.Fatalf("expected %d branches, got %d", len(freeTextFields), len(g.Conds))
	}
	for _, c := range g.Conds {
		if c.Op != query.OpContainsFold || c.Value != "ivan" {
			t.Errorf("unexpected branch {%s %d %v}", c.Field, c.Op, c.Value)
		}
	}
}

func TestCompileCombinesCriteriaWithAnd(t *testing.T) {
	active := true
	f := Filter{
		LastName: "Smith",
		Tag:      "vip",
		Active:   &active,
		FreeText: "acme",
	}
	n := f.Compile()
	if n.Or {
		t.Error("top-level node must be AND-joined")
	}
	if len(n.Conds) != 3 {
		t.Errorf("expected 3 top-level conditions, got %d", len(n.Conds))
	}
	if len(n.Groups) != 1 {
		t.Errorf("expected 1 free text group, got %d", len(n.Groups))
	}
}

// Package query defines the backend-neutral condition tree, ordering, and
// paging types shared by the contact engine and its store adapters.
//
// A store adapter translates a Node into its native query form (SQL WHERE
// clause, in-memory predicate, ...). Nothing in this package knows about SQL,
// column names, or any particular backend.
package query

// Op identifies a leaf comparison operator.
type Op int

const (
	// OpEq is case-sensitive equality.
	OpEq Op = iota
	// OpEqFold is case-insensitive equality.
	OpEqFold
	// OpContainsFold is a case-insensitive substring match.
	OpContainsFold
	// OpHasToken matches a whole token inside a comma-delimited list:
	// a stored "vip,gold" has token "vip" but not "vi" or "old".
	OpHasToken
	// OpGte is an inclusive lower bound.
	OpGte
	// OpLte is an inclusive upper bound.
	OpLte
)

// Field names a filterable or sortable attribute. The contact engine defines
// the valid set; adapters must reject anything outside it.
type Field string

// Cond is a single leaf comparison.
type Cond struct {
	Field Field
	Op    Op
	Value any
}

// Node combines leaf conditions and sub-groups under one logical operator.
// The zero Node matches everything.
type Node struct {
	// Or joins children with OR instead of the default AND.
	Or     bool
	Conds  []Cond
	Groups []Node
}

// Empty reports whether the node carries no conditions at all.
func (n Node) Empty() bool {
	if len(n.Conds) > 0 {
		return false
	}
	for _, g := range n.Groups {
		if !g.Empty() {
			return false
		}
	}
	return true
}

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// OrderKey is a validated (field, direction) pair approved for use in a
// store's ordering clause.
type OrderKey struct {
	Field     Field
	Direction Direction
}

// PageRequest is a zero-based page window.
type PageRequest struct {
	Page int
	Size int
}

// Offset returns the row offset for the window. The arithmetic is done in
// int64 so large page indices cannot overflow; a product that would exceed
// the int64 range is clamped to MaxInt64.
func (p PageRequest) Offset() int64 {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	page, size := int64(p.Page), int64(p.Size)
	const maxInt64 = int64(^uint64(0) >> 1)
	if page > maxInt64/size {
		return maxInt64
	}
	return page * size
}

package contact

import "github.com/dimitryivaniuta/contactdir/internal/query"

// SortRequest is a caller-supplied (field name, direction) pair. Field names
// use the filter's camelCase vocabulary, e.g. "lastName".
type SortRequest struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// sortWhitelist maps the requestable sort field names to their typed fields.
// Anything outside this map never reaches a store as a raw field reference.
var sortWhitelist = map[string]query.Field{
	"email":          FieldEmail,
	"lastName":       FieldLastName,
	"firstName":      FieldFirstName,
	"companyName":    FieldCompanyName,
	"createdAt":      FieldCreatedAt,
	"lastActivityAt": FieldLastActivityAt,
}

// DefaultOrder is applied whenever no requested field survives the
// whitelist, keeping pagination deterministic across identical requests.
var DefaultOrder = []query.OrderKey{{Field: FieldCreatedAt, Direction: query.Desc}}

// ResolveSort validates the requested ordering against the whitelist.
// Unknown field names are silently dropped rather than failing the request.
// An empty result means the caller gets DefaultOrder.
func ResolveSort(reqs []SortRequest) []query.OrderKey {
	var keys []query.OrderKey
	for _, r := range reqs {
		field, ok := sortWhitelist[r.Field]
		if !ok {
			continue
		}
		dir := query.Asc
		if r.Desc {
			dir = query.Desc
		}
		keys = append(keys, query.OrderKey{Field: field, Direction: dir})
	}
	return keys
}

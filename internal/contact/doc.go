// Package contact implements the contact directory engine: CRUD on contact
// records plus multi-criteria paginated search.
//
// The search core is a filter-to-query compiler. A sparse Filter value is
// compiled into a backend-neutral query.Node, a requested ordering is
// resolved against a fixed whitelist, and the executor issues a count query
// followed (when the count is nonzero) by a bounded, ordered fetch against
// the Store.
//
// The service layer contains pure business logic and depends on the Store
// interface defined in repository.go. It never imports net/http or
// database/sql directly.
package contact

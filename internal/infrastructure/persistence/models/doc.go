// Package models contains GORM persistence models that map to database tables.
// Domain entities carry no ORM tags; each model converts to and from its
// entity with ToDomain and a ...ModelFromDomain constructor.
//
// Files:
//   - base.go: shared id, timestamp, version and tenant columns
//   - ledger.go: customers and the append-only transactions ledger
//   - order.go: orders with their frozen line items
//   - catalog.go: products and zones
//   - audit.go: audit log
package models

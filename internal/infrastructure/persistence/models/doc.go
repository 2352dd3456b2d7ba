// Package models contains GORM persistence models that map to database tables.
// Domain aggregates carry no ORM tags; each model here converts to and from its
// aggregate with ToDomain and a XModelFromDomain constructor.
//
// Files follow the bounded contexts: identity.go (tenants, users), crm.go
// (contacts, territories, deals), knowledge.go (documents, chunks), finance.go
// (invoices and their lines), hr.go (employees) and projects.go.
package models

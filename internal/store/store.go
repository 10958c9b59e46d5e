// Package store provides whole-document persistence: every save rewrites
// the full named document, every load reads it back in one piece. There
// are no partial updates, no transactions and no versioning.
package store

// Document names used by the game core. Each is an independent store.
const (
	DocRecords       = "records"
	DocSubscriptions = "subscriptions"
	DocMarket        = "market"
)

type Store interface {
	// Load decodes the named document into doc. A document that has
	// never been saved leaves doc zero-valued and returns nil.
	Load(name string, doc any) error
	// Save rewrites the named document from doc.
	Save(name string, doc any) error
}

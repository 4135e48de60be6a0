// Package gateway defines the remote document store contract the session
// controller writes through. The store keeps one document per user in the
// "students" collection, keyed by nickname.
package gateway

import (
	"context"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
)

// Collection is the remote collection holding one document per user.
const Collection = "students"

// Gateway provides list/create/update/delete access to user progress
// documents. Calls may fail independently of each other and carry no
// transactional guarantee across documents.
type Gateway interface {
	// ListAll fetches every document in the collection. Records come back
	// raw; callers normalize them against the catalog.
	ListAll(ctx context.Context) ([]progress.Record, error)

	// Create writes the full document at key rec.Name. Writing an existing
	// key overwrites the document (upsert semantics).
	Create(ctx context.Context, rec progress.Record) error

	// UpdateField updates a single progress entry plus the lastUpdated
	// timestamp, leaving all other fields alone.
	UpdateField(ctx context.Context, name, subjectID string, value int, lastUpdated string) error

	// Delete removes the document at key name. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, name string) error

	// Close releases the underlying connection, if any.
	Close() error
}

package repository

import (
	"context"
	"fmt"
	"net/http"

	"stride-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// EntityStore reads and writes one side's copy of an entity. The engine is
// wired with two instances: the authoritative server store and the device
// shadow cache, both opaque to it beyond this surface.
type EntityStore interface {
	Fetch(ctx context.Context, entityType, entityID string) (domain.Snapshot, error)
	Write(ctx context.Context, entityType, entityID string, version domain.Snapshot) error
}

type couchEntityStore struct {
	db *kivik.DB
}

type entityDoc struct {
	ID         string            `json:"_id"`
	Rev        string            `json:"_rev,omitempty"`
	DocType    string            `json:"doc_type"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Deleted    bool              `json:"deleted"`
	Attributes domain.Attributes `json:"attributes,omitempty"`
}

// NewCouchEntityStore stores entity versions in a CouchDB database, one
// document per (entityType, entityID). Deleted entities keep a tombstone
// document so delete/update races stay detectable.
func NewCouchEntityStore(client *kivik.Client, dbName string) EntityStore {
	return &couchEntityStore{
		db: client.DB(dbName),
	}
}

func entityDocID(entityType, entityID string) string {
	return fmt.Sprintf("entity:%s:%s", entityType, entityID)
}

func (s *couchEntityStore) Fetch(ctx context.Context, entityType, entityID string) (domain.Snapshot, error) {
	row := s.db.Get(ctx, entityDocID(entityType, entityID))

	var doc entityDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return domain.MissingSnapshot(), nil
		}
		return domain.Snapshot{}, fmt.Errorf("failed to fetch %s/%s: %w", entityType, entityID, err)
	}

	if doc.Deleted {
		return domain.TombstoneSnapshot(), nil
	}
	return domain.PresentSnapshot(doc.Attributes), nil
}

func (s *couchEntityStore) Write(ctx context.Context, entityType, entityID string, version domain.Snapshot) error {
	docID := entityDocID(entityType, entityID)

	doc := entityDoc{
		ID:         docID,
		DocType:    "entity",
		EntityType: entityType,
		EntityID:   entityID,
		Deleted:    version.Gone(),
		Attributes: version.Attributes,
	}

	// Carry the current revision so overwrites with the same resolved value
	// remain a safe no-op rather than a CouchDB conflict.
	row := s.db.Get(ctx, docID)
	var existing entityDoc
	if err := row.ScanDoc(&existing); err == nil {
		doc.Rev = existing.Rev
	}

	if _, err := s.db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", entityType, entityID, err)
	}

	return nil
}

package service

import (
	"context"
	"time"

	"stride-sync-server/internal/domain"

	"github.com/google/uuid"
)

// Authorizer answers whether a user may apply the mutation reflected in the
// local copy against the current server state. Consulted only for entities
// whose access is governed by group membership or roles.
type Authorizer interface {
	IsAuthorized(ctx context.Context, userID, entityType, entityID string, local domain.Snapshot) (bool, error)
}

// ClassifyInput is everything classification needs. The authorization answer
// is resolved by the caller so classification itself stays pure.
type ClassifyInput struct {
	EntityType string
	EntityID   string
	Local      domain.Snapshot
	Server     domain.Snapshot
	Baseline   *domain.Snapshot
	Authorized bool
}

func (in ClassifyInput) hasBaseline() bool {
	return in.Baseline != nil && !in.Baseline.Missing
}

// Classify inspects a (local, server, baseline) triple and produces a conflict
// record, or nil when the divergence is trivial (identical copies, or a
// fast-forward where only one side moved past the baseline).
func Classify(in ClassifyInput) *domain.ConflictRecord {
	if in.Local.Equal(in.Server) {
		return nil
	}

	localChanged := in.Local.Exists()
	if in.hasBaseline() {
		localChanged = !in.Local.Equal(*in.Baseline)
	}

	// The local copy carries no mutation: whatever the server did applies as
	// a fast-forward, conflict-free.
	if !localChanged {
		return nil
	}

	if !in.Authorized {
		return newRecord(in, domain.ConflictTypePermission)
	}

	// No shared ancestor but both sides hold a live copy: duplicate creation,
	// e.g. a retried offline create racing a second device.
	if !in.hasBaseline() {
		if in.Local.Exists() && in.Server.Exists() {
			rec := newRecord(in, domain.ConflictTypeCreate)
			rec.PreferredSide = preferEarlierCreate(in.Local, in.Server)
			return rec
		}
		// The server never saw this entity; the local copy is just new data.
		return nil
	}

	// Fast-forward in the other direction: the server is still at baseline.
	if in.Server.Equal(*in.Baseline) {
		return nil
	}

	if in.Local.Gone() != in.Server.Gone() {
		return newRecord(in, domain.ConflictTypeDelete)
	}

	return newRecord(in, domain.ConflictTypeUpdate)
}

func newRecord(in ClassifyInput, t domain.ConflictType) *domain.ConflictRecord {
	rec := &domain.ConflictRecord{
		ID:            uuid.New().String(),
		EntityType:    in.EntityType,
		EntityID:      in.EntityID,
		Type:          t,
		LocalVersion:  in.Local.Clone(),
		ServerVersion: in.Server.Clone(),
		DetectedAt:    time.Now(),
	}

	if in.hasBaseline() {
		b := in.Baseline.Clone()
		rec.BaselineVersion = &b
	}

	return rec
}

// preferEarlierCreate picks the canonical candidate for a duplicate-create
// conflict: the copy with the earlier createdAt. Ties and missing timestamps
// fall back to the server copy.
func preferEarlierCreate(local, server domain.Snapshot) domain.Side {
	lt, lok := local.Attributes.Time("createdAt")
	st, sok := server.Attributes.Time("createdAt")

	if lok && sok && lt.Before(st) {
		return domain.SideLocal
	}
	if lok && !sok {
		return domain.SideLocal
	}
	return domain.SideServer
}

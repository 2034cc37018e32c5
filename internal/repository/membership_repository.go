package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

var ErrMembershipNotFound = errors.New("membership not found")

// Membership records a user's role inside an accountability group. Roles
// evolve over time, which is why permission conflicts exist at all.
type Membership struct {
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
	Role    string `json:"role"`
}

type MembershipRepository interface {
	Find(ctx context.Context, userID, groupID string) (*Membership, error)
	Upsert(ctx context.Context, membership *Membership) error
}

type couchMembershipRepo struct {
	db *kivik.DB
}

type membershipDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	DocType string `json:"doc_type"`
	UserID  string `json:"user_id"`
	GroupID string `json:"group_id"`
	Role    string `json:"role"`
}

func NewMembershipRepository(client *kivik.Client, dbName string) MembershipRepository {
	return &couchMembershipRepo{
		db: client.DB(dbName),
	}
}

func membershipDocID(userID, groupID string) string {
	return fmt.Sprintf("membership:%s:%s", groupID, userID)
}

func (r *couchMembershipRepo) Find(ctx context.Context, userID, groupID string) (*Membership, error) {
	row := r.db.Get(ctx, membershipDocID(userID, groupID))

	var doc membershipDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}

	return &Membership{
		UserID:  doc.UserID,
		GroupID: doc.GroupID,
		Role:    doc.Role,
	}, nil
}

func (r *couchMembershipRepo) Upsert(ctx context.Context, membership *Membership) error {
	docID := membershipDocID(membership.UserID, membership.GroupID)

	doc := membershipDoc{
		ID:      docID,
		DocType: "membership",
		UserID:  membership.UserID,
		GroupID: membership.GroupID,
		Role:    membership.Role,
	}

	row := r.db.Get(ctx, docID)
	var existing membershipDoc
	if err := row.ScanDoc(&existing); err == nil {
		doc.Rev = existing.Rev
	}

	if _, err := r.db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

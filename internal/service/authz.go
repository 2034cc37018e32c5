package service

import (
	"context"
	"errors"

	"stride-sync-server/internal/domain"
	"stride-sync-server/internal/repository"
)

// Roles a membership can carry, in increasing order of privilege.
const (
	RoleViewer = "viewer"
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// MembershipAuthorizer authorizes mutations on group-governed entities from
// the acting user's current role. Entities outside group governance are
// always authorized; their conflicts are plain data conflicts.
type MembershipAuthorizer struct {
	memberships repository.MembershipRepository
	governed    map[string]bool
}

func NewMembershipAuthorizer(memberships repository.MembershipRepository, governedTypes []string) *MembershipAuthorizer {
	governed := make(map[string]bool, len(governedTypes))
	for _, t := range governedTypes {
		governed[t] = true
	}
	return &MembershipAuthorizer{
		memberships: memberships,
		governed:    governed,
	}
}

func (a *MembershipAuthorizer) IsAuthorized(ctx context.Context, userID, entityType, entityID string, local domain.Snapshot) (bool, error) {
	if !a.governed[entityType] {
		return true, nil
	}

	groupID := entityID
	if v, ok := local.Attributes["groupId"]; ok && v.Kind == domain.KindString {
		groupID = v.Str
	}

	membership, err := a.memberships.Find(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}

	switch membership.Role {
	case RoleAdmin:
		return true, nil
	case RoleMember:
		// Members may edit but not delete group-governed entities.
		return !local.Tombstone, nil
	default:
		return false, nil
	}
}

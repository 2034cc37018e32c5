package service

import (
	"context"
	"testing"

	"stride-sync-server/internal/domain"
	"stride-sync-server/internal/repository"
)

type mockMembershipRepo struct {
	memberships map[string]string // "user/group" -> role
}

func (m *mockMembershipRepo) Find(_ context.Context, userID, groupID string) (*repository.Membership, error) {
	role, ok := m.memberships[userID+"/"+groupID]
	if !ok {
		return nil, repository.ErrMembershipNotFound
	}
	return &repository.Membership{UserID: userID, GroupID: groupID, Role: role}, nil
}

func (m *mockMembershipRepo) Upsert(_ context.Context, membership *repository.Membership) error {
	m.memberships[membership.UserID+"/"+membership.GroupID] = membership.Role
	return nil
}

func TestMembershipAuthorizer(t *testing.T) {
	repo := &mockMembershipRepo{memberships: map[string]string{
		"alice/grp1": RoleAdmin,
		"bob/grp1":   RoleMember,
		"carol/grp1": RoleViewer,
	}}
	authz := NewMembershipAuthorizer(repo, []string{"AccountabilityGroup"})

	edit := domain.PresentSnapshot(attrs(map[string]domain.Value{
		"name": domain.String("morning runners"),
	}))
	deletion := domain.TombstoneSnapshot()

	tests := []struct {
		name       string
		userID     string
		entityType string
		entityID   string
		local      domain.Snapshot
		want       bool
	}{
		{"ungoverned type always allowed", "nobody", "Goal", "g1", edit, true},
		{"admin may edit", "alice", "AccountabilityGroup", "grp1", edit, true},
		{"admin may delete", "alice", "AccountabilityGroup", "grp1", deletion, true},
		{"member may edit", "bob", "AccountabilityGroup", "grp1", edit, true},
		{"member may not delete", "bob", "AccountabilityGroup", "grp1", deletion, false},
		{"viewer may not edit", "carol", "AccountabilityGroup", "grp1", edit, false},
		{"non-member denied", "dave", "AccountabilityGroup", "grp1", edit, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authz.IsAuthorized(context.Background(), tt.userID, tt.entityType, tt.entityID, tt.local)
			if err != nil {
				t.Fatalf("IsAuthorized() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsAuthorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMembershipAuthorizerGroupIDAttribute(t *testing.T) {
	repo := &mockMembershipRepo{memberships: map[string]string{
		"alice/grp7": RoleAdmin,
	}}
	authz := NewMembershipAuthorizer(repo, []string{"AccountabilityGroup"})

	// The entity belongs to grp7 even though its own ID differs.
	local := domain.PresentSnapshot(attrs(map[string]domain.Value{
		"groupId": domain.String("grp7"),
	}))

	ok, err := authz.IsAuthorized(context.Background(), "alice", "AccountabilityGroup", "post-42", local)
	if err != nil {
		t.Fatalf("IsAuthorized() error = %v", err)
	}
	if !ok {
		t.Error("expected membership lookup by groupId attribute")
	}
}

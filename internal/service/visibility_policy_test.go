package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/church-ops-api/internal/models"
)

func principalFor(id string, role models.MemberRole) models.Principal {
	return models.Principal{ID: id, ChurchID: "church-1", Role: role, Rank: models.DefaultRank(role)}
}

func TestVisibilityPolicyLevels(t *testing.T) {
	policy := NewVisibilityPolicy(ThresholdsFromRank(models.DefaultRank))

	cases := []struct {
		role       models.MemberRole
		visibility models.Visibility
		want       bool
	}{
		{models.RoleMember, models.VisibilityMembers, true},
		{models.RoleMember, models.VisibilityVolunteers, false},
		{models.RoleVolunteer, models.VisibilityVolunteers, true},
		{models.RoleVolunteer, models.VisibilityLeaders, false},
		{models.RoleLeader, models.VisibilityLeaders, true},
		{models.RoleLeader, models.VisibilityHidden, false},
		{models.RoleAdmin, models.VisibilityHidden, true},
		{models.RoleOwner, models.VisibilityHidden, true},
		{models.RoleOwner, models.Visibility("secret"), false},
		{models.MemberRole("guest"), models.VisibilityMembers, false},
	}
	for _, tc := range cases {
		got := policy.CanRead(principalFor("user-1", tc.role), tc.visibility, nil)
		assert.Equal(t, tc.want, got, "%s reading %s", tc.role, tc.visibility)
	}
}

func TestVisibilityPolicyHiddenInvitees(t *testing.T) {
	policy := NewVisibilityPolicy(ThresholdsFromRank(models.DefaultRank))
	invitees := []string{"user-2", "user-3"}

	assert.False(t, policy.CanRead(principalFor("user-1", models.RoleMember), models.VisibilityHidden, invitees))
	assert.True(t, policy.CanRead(principalFor("user-2", models.RoleMember), models.VisibilityHidden, invitees))
	assert.True(t, policy.CanRead(principalFor("user-1", models.RoleAdmin), models.VisibilityHidden, invitees))
}

func TestVisibilityPolicyUsesInjectedRanks(t *testing.T) {
	flat := func(role models.MemberRole) int {
		if role == models.RoleAdmin || role == models.RoleOwner {
			return 10
		}
		return 1
	}
	policy := NewVisibilityPolicy(ThresholdsFromRank(flat))
	volunteer := models.Principal{ID: "user-1", Role: models.RoleVolunteer, Rank: flat(models.RoleVolunteer)}

	assert.True(t, policy.CanRead(volunteer, models.VisibilityLeaders, nil))
	assert.False(t, policy.CanRead(volunteer, models.VisibilityHidden, nil))
}

func TestVisibilityPolicyWriteAndDelete(t *testing.T) {
	policy := NewVisibilityPolicy(ThresholdsFromRank(models.DefaultRank))
	writeRank := models.DefaultRank(models.RoleLeader)
	deleteRank := models.DefaultRank(models.RoleAdmin)

	leader := principalFor("user-1", models.RoleLeader)
	assert.True(t, policy.CanWrite(leader, writeRank))
	assert.False(t, policy.CanDelete(leader, deleteRank))

	volunteer := principalFor("user-2", models.RoleVolunteer)
	assert.False(t, policy.CanWrite(volunteer, writeRank))

	admin := principalFor("user-3", models.RoleAdmin)
	assert.True(t, policy.CanDelete(admin, deleteRank))

	assert.False(t, policy.CanWrite(models.Principal{ID: "ghost"}, 0))
}

func TestVisibilityPolicyReadableLevels(t *testing.T) {
	policy := NewVisibilityPolicy(ThresholdsFromRank(models.DefaultRank))

	assert.Equal(t, []models.Visibility{models.VisibilityMembers, models.VisibilityVolunteers}, policy.ReadableLevels(principalFor("u", models.RoleVolunteer)))
	assert.Equal(t, []models.Visibility{models.VisibilityMembers, models.VisibilityVolunteers, models.VisibilityLeaders, models.VisibilityHidden}, policy.ReadableLevels(principalFor("u", models.RoleAdmin)))
	assert.Empty(t, policy.ReadableLevels(models.Principal{ID: "u"}))
}

func TestIncompletelyConfigured(t *testing.T) {
	assert.True(t, IncompletelyConfigured(models.VisibilityHidden, nil))
	assert.False(t, IncompletelyConfigured(models.VisibilityHidden, []string{"user-1"}))
	assert.False(t, IncompletelyConfigured(models.VisibilityMembers, nil))
	assert.Equal(t, []string{models.WarningHiddenWithoutInvitees}, visibilityWarnings(models.VisibilityHidden, nil))
}

package models

import "strings"

// MemberRole is the church-level role carried in access tokens.
type MemberRole string

const (
	RoleMember    MemberRole = "member"
	RoleVolunteer MemberRole = "volunteer"
	RoleLeader    MemberRole = "leader"
	RoleAdmin     MemberRole = "admin"
	RoleOwner     MemberRole = "owner"
)

// RankFunc maps a role onto the integer hierarchy used for access comparisons.
type RankFunc func(MemberRole) int

// DefaultRank is the stock role hierarchy. Unknown roles rank below member.
func DefaultRank(role MemberRole) int {
	switch role {
	case RoleMember:
		return 1
	case RoleVolunteer:
		return 2
	case RoleLeader:
		return 3
	case RoleAdmin:
		return 4
	case RoleOwner:
		return 5
	default:
		return 0
	}
}

// ParseMemberRole normalises raw into a known role.
func ParseMemberRole(raw string) (MemberRole, bool) {
	role := MemberRole(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleMember, RoleVolunteer, RoleLeader, RoleAdmin, RoleOwner:
		return role, true
	default:
		return "", false
	}
}

// Principal is the resolved caller of a request.
type Principal struct {
	ID       string     `json:"id"`
	ChurchID string     `json:"churchId"`
	Role     MemberRole `json:"role"`
	Rank     int        `json:"rank"`
}

package service

import "github.com/noah-isme/church-ops-api/internal/models"

// AccessThresholds are the minimum ranks for each visibility level plus the
// override rank that can see every hidden template or event.
type AccessThresholds struct {
	Members    int
	Volunteers int
	Leaders    int
	Override   int
}

// ThresholdsFromRank precomputes thresholds from a rank function.
func ThresholdsFromRank(rank models.RankFunc) AccessThresholds {
	if rank == nil {
		rank = models.DefaultRank
	}
	return AccessThresholds{
		Members:    rank(models.RoleMember),
		Volunteers: rank(models.RoleVolunteer),
		Leaders:    rank(models.RoleLeader),
		Override:   rank(models.RoleAdmin),
	}
}

// VisibilityPolicy decides read, write and delete access by comparing ranks.
// It is pure: no lookups, no errors.
type VisibilityPolicy struct {
	thresholds AccessThresholds
}

// NewVisibilityPolicy builds a policy over precomputed thresholds.
func NewVisibilityPolicy(thresholds AccessThresholds) VisibilityPolicy {
	return VisibilityPolicy{thresholds: thresholds}
}

// CanRead reports whether principal may see something at the given visibility.
func (p VisibilityPolicy) CanRead(principal models.Principal, visibility models.Visibility, invitees []string) bool {
	if principal.Rank <= 0 {
		return false
	}
	switch visibility {
	case models.VisibilityMembers:
		return principal.Rank >= p.thresholds.Members
	case models.VisibilityVolunteers:
		return principal.Rank >= p.thresholds.Volunteers
	case models.VisibilityLeaders:
		return principal.Rank >= p.thresholds.Leaders
	case models.VisibilityHidden:
		if principal.Rank >= p.thresholds.Override {
			return true
		}
		for _, id := range invitees {
			if id == principal.ID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanWrite reports whether principal meets the rank required to create or edit.
func (p VisibilityPolicy) CanWrite(principal models.Principal, requiredRank int) bool {
	return principal.Rank > 0 && principal.Rank >= requiredRank
}

// CanDelete reports whether principal meets the rank required to delete.
func (p VisibilityPolicy) CanDelete(principal models.Principal, requiredRank int) bool {
	return principal.Rank > 0 && principal.Rank >= requiredRank
}

// ReadableLevels lists the non-invite levels principal can read. Hidden is
// included only for principals holding the override rank.
func (p VisibilityPolicy) ReadableLevels(principal models.Principal) []models.Visibility {
	levels := make([]models.Visibility, 0, 4)
	for _, level := range []models.Visibility{models.VisibilityMembers, models.VisibilityVolunteers, models.VisibilityLeaders, models.VisibilityHidden} {
		if level == models.VisibilityHidden {
			if principal.Rank > 0 && principal.Rank >= p.thresholds.Override {
				levels = append(levels, level)
			}
			continue
		}
		if p.CanRead(principal, level, nil) {
			levels = append(levels, level)
		}
	}
	return levels
}

// SeesAllHidden reports whether principal overrides invite lists.
func (p VisibilityPolicy) SeesAllHidden(principal models.Principal) bool {
	return principal.Rank > 0 && principal.Rank >= p.thresholds.Override
}

// IncompletelyConfigured reports a hidden target with nobody invited.
func IncompletelyConfigured(visibility models.Visibility, invitees []string) bool {
	return visibility == models.VisibilityHidden && len(invitees) == 0
}

// visibilityWarnings returns the soft warnings for a visibility setup.
func visibilityWarnings(visibility models.Visibility, invitees []string) []string {
	if IncompletelyConfigured(visibility, invitees) {
		return []string{models.WarningHiddenWithoutInvitees}
	}
	return nil
}

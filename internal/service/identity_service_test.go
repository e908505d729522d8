package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

func TestIdentityServiceRoundTrip(t *testing.T) {
	svc := NewIdentityService(IdentityConfig{Secret: "secret", Issuer: "church-ops", Audience: []string{"api"}}, nil, nil)

	token, expiresAt, err := svc.IssueToken("user-1", "church-1", models.RoleLeader)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "church-1", claims.ChurchID)

	principal := svc.Resolve(claims)
	assert.Equal(t, models.Principal{ID: "user-1", ChurchID: "church-1", Role: models.RoleLeader, Rank: 3}, principal)
}

func TestIdentityServiceRejectsForeignTokens(t *testing.T) {
	issuer := NewIdentityService(IdentityConfig{Secret: "other"}, nil, nil)
	token, _, err := issuer.IssueToken("user-1", "church-1", models.RoleAdmin)
	require.NoError(t, err)

	svc := NewIdentityService(IdentityConfig{Secret: "secret"}, nil, nil)
	_, err = svc.ValidateToken(token)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.ValidateToken("not-a-token")
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	missingChurch, _, err := svc.IssueToken("user-1", "", models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateToken(missingChurch)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestIdentityServiceRejectsExpiredTokens(t *testing.T) {
	svc := NewIdentityService(IdentityConfig{Secret: "secret"}, nil, nil)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken("user-1", "church-1", models.RoleMember)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestIdentityServiceResolveUsesInjectedRank(t *testing.T) {
	flat := func(role models.MemberRole) int {
		if role == models.RoleOwner {
			return 9
		}
		return 1
	}
	svc := NewIdentityService(IdentityConfig{Secret: "secret"}, flat, nil)

	assert.Equal(t, 9, svc.Resolve(&models.JWTClaims{UserID: "u", ChurchID: "c", Role: models.RoleOwner}).Rank)
	guest := svc.Resolve(&models.JWTClaims{UserID: "u", ChurchID: "c", Role: "guest"})
	assert.Equal(t, models.MemberRole(""), guest.Role)
	assert.Equal(t, 1, guest.Rank)
}

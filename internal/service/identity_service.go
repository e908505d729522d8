package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/models"
	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

// IdentityConfig defines how access tokens are verified and issued.
type IdentityConfig struct {
	Secret    string
	Issuer    string
	Audience  []string
	AccessTTL time.Duration
}

// IdentityService turns bearer tokens into principals. Accounts and sign-in
// live in the identity provider; this service only trusts its signature.
type IdentityService struct {
	config IdentityConfig
	rank   models.RankFunc
	now    func() time.Time
	logger *zap.Logger
}

// NewIdentityService constructs the service. A nil rank uses models.DefaultRank.
func NewIdentityService(config IdentityConfig, rank models.RankFunc, logger *zap.Logger) *IdentityService {
	if rank == nil {
		rank = models.DefaultRank
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTTL <= 0 {
		config.AccessTTL = time.Hour
	}
	return &IdentityService{config: config, rank: rank, now: time.Now, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.UserID == "" || claims.ChurchID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is missing user or church")
	}
	return claims, nil
}

// Resolve maps verified claims onto a principal. Unknown roles rank zero and can read nothing.
func (s *IdentityService) Resolve(claims *models.JWTClaims) models.Principal {
	role, ok := models.ParseMemberRole(string(claims.Role))
	if !ok {
		s.logger.Debug("unknown member role in token", zap.String("role", string(claims.Role)))
	}
	return models.Principal{
		ID:       claims.UserID,
		ChurchID: claims.ChurchID,
		Role:     role,
		Rank:     s.rank(role),
	}
}

// IssueToken signs an access token for a member. It backs local tooling and tests.
func (s *IdentityService) IssueToken(userID, churchID string, role models.MemberRole) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTTL)
	claims := &models.JWTClaims{
		UserID:   userID,
		ChurchID: churchID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

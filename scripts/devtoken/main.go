package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/internal/service"
	"github.com/noah-isme/church-ops-api/pkg/config"
)

// devtoken prints a signed access token for local testing against the API.
func main() {
	var (
		userID   string
		churchID string
		role     string
	)

	flag.StringVar(&userID, "user", "dev-user", "User ID placed in the token")
	flag.StringVar(&churchID, "church", "dev-church", "Church ID placed in the token")
	flag.StringVar(&role, "role", string(models.RoleLeader), "Member role (member, volunteer, leader, admin, owner)")
	flag.Parse()

	memberRole, ok := models.ParseMemberRole(role)
	if !ok {
		log.Fatalf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	identity := service.NewIdentityService(service.IdentityConfig{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.AccessTTL,
	}, models.DefaultRank, nil)

	token, expiresAt, err := identity.IssueToken(userID, churchID, memberRole)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
}

// Command token issues staff access tokens for local development and
// smoke tests. Production tokens come from the identity service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/auth"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/google/uuid"
)

func main() {
	var (
		tenant = flag.String("tenant", "", "Tenant ID (required)")
		user   = flag.String("user", "", "Staff user ID (default: random)")
		name   = flag.String("name", "dev", "Staff display name")
		role   = flag.String("role", string(identity.RoleOwner), "owner, cashier or auditor")
		preset = flag.String("preset", "", "cashier_basic, cashier_full or admin")
		perms  = flag.String("perms", "", "Comma separated permission keys, added to the preset")
	)
	flag.Parse()

	if err := run(*tenant, *user, *name, *role, *preset, *perms); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(tenant, user, name, role, preset, perms string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to issue development tokens in production")
	}

	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return fmt.Errorf("invalid -tenant: %w", err)
	}
	userID := uuid.New()
	if user != "" {
		if userID, err = uuid.Parse(user); err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}

	set := identity.PermissionSet{}
	if preset != "" {
		p, ok := identity.Preset(preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", preset)
		}
		set = p
	}
	if perms != "" {
		for p := range identity.ParsePermissionSet(strings.Split(perms, ",")) {
			set[p] = true
		}
	}

	token, expiresAt, err := auth.NewJWTService(cfg.JWT).GenerateAccessToken(auth.GenerateTokenInput{
		TenantID:    tenantID,
		UserID:      userID,
		Name:        name,
		Role:        identity.Role(role),
		Permissions: set,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "expires %s, user %s\n", expiresAt.Format("2006-01-02 15:04:05Z07:00"), userID)
	fmt.Println(token)
	return nil
}

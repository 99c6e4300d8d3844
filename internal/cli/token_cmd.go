package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pace-projection-api/internal/models"
	"github.com/noah-isme/pace-projection-api/internal/service"
)

var knownRoles = map[models.UserRole]struct{}{
	models.RoleSuperAdmin: {},
	models.RoleAdmin:      {},
	models.RoleTeacher:    {},
	models.RoleStudent:    {},
}

func newTokenCmd(app *App) *cobra.Command {
	var userID, role, email string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			userRole := models.UserRole(strings.ToUpper(role))
			if _, ok := knownRoles[userRole]; !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := app.ConfigLoader()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			expiry := cfg.JWT.Expiration
			if ttl > 0 {
				expiry = ttl
			}
			auth := service.NewAuthService(nil, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: expiry,
			})
			token, expiresAt, err := auth.IssueToken(userID, userRole, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID placed in the token")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "Role: SUPERADMIN, ADMIN, TEACHER or STUDENT")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

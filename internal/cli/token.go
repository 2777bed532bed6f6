package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reviewflow/internal/api/middleware"
	"reviewflow/internal/domain"
)

var tokenOpts struct {
	id           int64
	username     string
	email        string
	superuser    bool
	capabilities []string
}

// tokenCmd выпускает JWT для локальной разработки, подписанный AUTH_JWT_SECRET
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed access token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenOpts.id <= 0 || tokenOpts.username == "" {
			return errors.New("--id and --username are required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is not set")
		}

		user := &domain.User{
			ID:        tokenOpts.id,
			Username:  tokenOpts.username,
			Email:     tokenOpts.email,
			Superuser: tokenOpts.superuser,
		}
		for _, c := range tokenOpts.capabilities {
			user.Capabilities = append(user.Capabilities, domain.Capability(c))
		}

		token, err := middleware.IssueToken(user, cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenOpts.id, "id", 0, "user id")
	tokenCmd.Flags().StringVar(&tokenOpts.username, "username", "", "username")
	tokenCmd.Flags().StringVar(&tokenOpts.email, "email", "", "email")
	tokenCmd.Flags().BoolVar(&tokenOpts.superuser, "superuser", false, "grant superuser")
	tokenCmd.Flags().StringSliceVar(&tokenOpts.capabilities, "capability", nil, "capability to grant (repeatable)")
}

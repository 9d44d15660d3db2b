package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
)

type adminOptions struct {
	Username   string
	Password   string
	Email      string
	FirstName  string
	LastName   string
	MustChange bool
}

type adminStore interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, staff *models.StaffAccount) error
}

func newCreateAdminCommand(env Env) *cobra.Command {
	opts := adminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Seed an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := env.open(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			hasher := service.NewPasswordHasher(cfg.Password.BcryptCost)
			staff, err := createAdmin(cmd.Context(), repository.NewStaffRepository(db), hasher, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", staff.Username, staff.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "admin", "login name")
	cmd.Flags().StringVar(&opts.Password, "password", "pwd1234", "initial password")
	cmd.Flags().StringVar(&opts.Email, "email", "admin@school.local", "contact email")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "System", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "Administrator", "last name")
	cmd.Flags().BoolVar(&opts.MustChange, "must-change-password", false, "force a password change on first login")
	return cmd
}

func createAdmin(ctx context.Context, store adminStore, hasher *service.PasswordHasher, opts adminOptions) (*models.StaffAccount, error) {
	if opts.Username == "" || opts.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	taken, err := store.UsernameTaken(ctx, opts.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("username %q already exists", opts.Username)
	}

	digest, err := hasher.Hash(opts.Password)
	if err != nil {
		return nil, err
	}
	staff := &models.StaffAccount{
		Username:           opts.Username,
		Email:              opts.Email,
		PasswordHash:       digest,
		FirstName:          opts.FirstName,
		LastName:           opts.LastName,
		Role:               models.StaffRoleAdmin,
		MustChangePassword: opts.MustChange,
	}
	if err := store.Create(ctx, staff); err != nil {
		return nil, err
	}
	return staff, nil
}

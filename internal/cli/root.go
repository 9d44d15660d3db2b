package cli

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
)

// Env supplies configuration and database access to commands.
type Env struct {
	LoadConfig func() (*config.Config, error)
	Connect    func(cfg config.DatabaseConfig) (*sqlx.DB, error)
}

// DefaultEnv reads configuration from the environment and connects to PostgreSQL.
func DefaultEnv() Env {
	return Env{LoadConfig: config.Load, Connect: database.NewPostgres}
}

// NewRootCommand creates the schoolctl command tree.
func NewRootCommand(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schoolctl",
		Short:         "Operator tooling for the school admin API",
		Long:          "Apply the database schema, seed administrator accounts and hash passwords.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newMigrateCommand(env))
	cmd.AddCommand(newCreateAdminCommand(env))
	cmd.AddCommand(newHashPasswordCommand())
	return cmd
}

func (e Env) open(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := e.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := e.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return cfg, db, nil
}

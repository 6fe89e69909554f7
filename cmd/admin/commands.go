package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/domain"
	"github.com/spec-kit/legal-aid-service/internal/observability"
	"github.com/spec-kit/legal-aid-service/internal/persistence"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	"github.com/spec-kit/legal-aid-service/internal/service"
)

// env bundles what every command needs to reach the database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &env{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *env) close() {
	e.pg.Close()
	_ = e.logger.Sync()
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (defaults to POSTGRES_MIGRATIONS_DIR)")

	resolveDir := func(e *env) string {
		if dir != "" {
			return dir
		}
		return e.cfg.Postgres.MigrationsDir
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			return persistence.RunMigrations(cmd.Context(), e.pg.PoolHandle(), resolveDir(e), e.logger)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			statuses, err := persistence.MigrationStatuses(cmd.Context(), e.pg.PoolHandle(), resolveDir(e))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, st := range statuses {
				state := "pending"
				if st.Applied {
					state = "applied"
				}
				fmt.Fprintf(out, "%-40s %s\n", st.Version, state)
			}
			return nil
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}

func seedRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create the system roles and reset their default permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			roles := service.NewRoleService(repository.NewRoleRepository(e.pg.PoolHandle()))
			created, err := roles.EnsureSystemRoles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "system roles ready (%d created)\n", created)
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var name, email, phone, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			pool := e.pg.PoolHandle()
			roleRepo := repository.NewRoleRepository(pool)
			role, err := roleRepo.GetByName(cmd.Context(), string(domain.BaseRoleAdmin))
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("ADMIN role missing, run seed-roles first")
			}
			if err != nil {
				return err
			}

			users := service.NewUserService(e.cfg.Auth, service.UserDependencies{
				UserRepo:   repository.NewUserRepository(pool),
				RoleRepo:   roleRepo,
				OfficeRepo: repository.NewOfficeRepository(pool),
			})
			user, err := users.CreateStaff(cmd.Context(), service.CreateStaffInput{
				Name:     name,
				Email:    email,
				Phone:    phone,
				Password: password,
				RoleID:   role.ID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	for _, flag := range []string{"name", "email", "phone", "password"} {
		_ = cmd.MarkFlagRequired(flag)
	}
	return cmd
}

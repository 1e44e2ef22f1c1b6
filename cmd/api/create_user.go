package main

import (
	"fmt"

	"revintel/internal/domain/model"
	"revintel/internal/infra/db"
	infraRepo "revintel/internal/infra/repository"
	auth "revintel/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
)

func newCreateUserCmd() *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a dashboard user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := withSignals(cmd.Context())
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := db.Migrate(a.db); err != nil {
				return err
			}

			uc := auth.NewCreateUserUsecase(infraRepo.NewUserGormRepository(a.db), auth.NewBcryptPasswordHasher(12))
			u, err := uc.Execute(ctx, auth.CreateUserInput{
				Email:    email,
				Password: password,
				Role:     model.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password (min 12 chars)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAnalyst), "admin, manager or analyst")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"revintel/internal/infra/db"
	"revintel/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load customers, products and sales from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := withSignals(cmd.Context())
			defer stop()

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			fx, err := seed.Decode(f)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := db.Migrate(a.db); err != nil {
				return err
			}

			res, err := seed.NewSeeder(a.customers, a.products, a.sales, a.log).Apply(ctx, fx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d customers, %d products, %d sales\n", res.Customers, res.Products, res.Sales)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "fixture file")
	return cmd
}

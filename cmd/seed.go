package main

import (
	"fmt"

	"github.com/okian/rally/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	plan := seed.DefaultPlan()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo teams and cars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			fleet, err := seed.Generate(plan)
			if err != nil {
				return err
			}
			cfg, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			if err := migrate(ctx, store); err != nil {
				_ = store.Close()
				return err
			}
			svc := newService(cfg, store)
			if err := svc.Start(ctx); err != nil {
				_ = store.Close()
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			sum, err := seed.Load(ctx, svc, fleet)
			if err != nil {
				return err
			}
			cmd.Printf("created %d teams, %d assigned cars, %d unassigned cars\n",
				len(sum.Teams), sum.Assigned, sum.Unassigned)
			return nil
		},
	}
	cmd.Flags().IntVar(&plan.Teams, "teams", plan.Teams, "number of teams")
	cmd.Flags().IntVar(&plan.CarsPerTeam, "cars-per-team", plan.CarsPerTeam, "cars assigned to each team")
	cmd.Flags().IntVar(&plan.Unassigned, "unassigned", plan.Unassigned, "extra cars without a team")
	cmd.Flags().Int64Var(&plan.Seed, "seed", plan.Seed, "generator seed")
	return cmd
}

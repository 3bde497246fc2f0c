package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Show the projects, trackers, and priorities of an installation",
	Long: "Fetches the reference data the setup wizard uses, in server " +
		"order.\nHandy for finding IDs to pass to \"create\".",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		inst, err := resolveInstallation(ctx, s)
		if err != nil {
			return err
		}

		adapter, err := adapterFor(inst)
		if err != nil {
			return err
		}

		projects, err := adapter.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("fetching projects: %w", err)
		}
		trackers, err := adapter.ListTrackers(ctx)
		if err != nil {
			return fmt.Errorf("fetching trackers: %w", err)
		}
		priorities, err := adapter.ListPriorities(ctx)
		if err != nil {
			return fmt.Errorf("fetching priorities: %w", err)
		}

		fmt.Println("Projects:")
		for _, p := range projects {
			fmt.Printf("  %-30s %s\n", p.Name, p.Identifier)
		}
		fmt.Println("Trackers:")
		for _, t := range trackers {
			fmt.Printf("  %-30s %d\n", t.Name, t.ID)
		}
		fmt.Println("Priorities:")
		for _, p := range priorities {
			marker := ""
			if p.IsDefault {
				marker = "  (server default)"
			}
			fmt.Printf("  %-30s %d%s\n", p.Name, p.ID, marker)
		}
		return nil
	},
}

package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/redmine-bridge/internal/credential"
	"github.com/nhle/redmine-bridge/internal/redmine"
	"github.com/nhle/redmine-bridge/internal/setup"
	"github.com/nhle/redmine-bridge/internal/store"
	"github.com/nhle/redmine-bridge/internal/ui/setupwizard"
)

var (
	setupList   bool
	setupRemove string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the guided setup wizard",
	Long: "Walks through connecting to a Redmine instance: credentials are " +
		"validated,\nreference data is fetched, and the chosen defaults are " +
		"stored as an installation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()

		if setupList {
			return listInstallations(ctx, s)
		}
		if setupRemove != "" {
			return removeInstallation(ctx, s, setupRemove)
		}

		httpClient := httpClientFor(appConfig)
		flow := setup.NewFlow(s, func(redmineURL, apiKey string) setup.Adapter {
			return redmine.NewAdapter(httpClient, redmineURL, apiKey)
		})

		program := tea.NewProgram(setupwizard.New(flow), tea.WithAltScreen())
		finalModel, err := program.Run()
		if err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}

		wizard, ok := finalModel.(setupwizard.Model)
		if !ok {
			return nil
		}
		if wizard.Aborted() {
			return fmt.Errorf("setup aborted: an installation already exists for this URL")
		}
		if inst := wizard.Result(); inst != nil {
			fmt.Printf("Configured %s (installation %s)\n", inst.Title(), inst.ID)
		}
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupList, "list", false, "list configured installations")
	setupCmd.Flags().StringVar(&setupRemove, "remove", "", "remove the installation with the given ID")
}

// listInstallations prints every configured installation.
func listInstallations(ctx context.Context, s store.Store) error {
	installs, err := s.GetInstallations(ctx)
	if err != nil {
		return err
	}
	if len(installs) == 0 {
		fmt.Println("No installations configured.")
		return nil
	}
	for _, inst := range installs {
		fmt.Printf("%s  %s  (project %s, tracker %d, priority %d)\n",
			inst.ID, inst.RedmineURL,
			inst.DefaultProjectID, inst.DefaultTrackerID, inst.DefaultPriorityID,
		)
	}
	return nil
}

// removeInstallation deletes an installation and its keyring entry.
func removeInstallation(ctx context.Context, s store.Store, id string) error {
	if err := s.DeleteInstallation(ctx, id); err != nil {
		return err
	}
	// Best-effort deletion; the row is already gone.
	_ = credential.DeleteAPIKey(id)
	fmt.Printf("Removed installation %s\n", id)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/redmine-bridge/internal/service"
)

var (
	createSubject     string
	createProject     string
	createDescription string
	createTracker     int
	createPriority    int
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue in Redmine",
	Long: "Files a new issue through the stored installation. Only --subject " +
		"is required;\nproject, tracker, and priority fall back to the " +
		"installation's defaults.",
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

		registry := service.NewRegistry()
		service.RegisterCreateIssue(registry, adapter, *inst)

		created, err := service.Invoke(ctx, registry, service.CreateIssueInput{
			Subject:     createSubject,
			ProjectID:   createProject,
			Description: createDescription,
			TrackerID:   createTracker,
			PriorityID:  createPriority,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created issue #%d: %s\n", created.Issue.ID, created.Issue.Subject)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createSubject, "subject", "s", "", "issue subject (required)")
	createCmd.Flags().StringVarP(&createProject, "project", "p", "", "project identifier")
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "issue description")
	createCmd.Flags().IntVarP(&createTracker, "tracker", "t", 0, "tracker ID")
	createCmd.Flags().IntVar(&createPriority, "priority", 0, "priority ID")
	_ = createCmd.MarkFlagRequired("subject")
}

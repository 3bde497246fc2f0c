package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Probe a stored installation's connection and API key",
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

		name, err := adapter.ValidateConnection(ctx)
		if err != nil {
			return fmt.Errorf("validating %s: %w", inst.RedmineURL, err)
		}

		if name != "" {
			fmt.Printf("Connection OK, authenticated as %s\n", name)
		} else {
			fmt.Println("Connection OK")
		}
		return nil
	},
}

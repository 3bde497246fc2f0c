// Command redmine-bridge connects automations to a self-hosted Redmine
// instance: a guided setup wizard captures credentials and defaults, and the
// create command files issues through the stored installation.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/redmine-bridge/internal/credential"
	"github.com/nhle/redmine-bridge/internal/model"
	"github.com/nhle/redmine-bridge/internal/redmine"
	"github.com/nhle/redmine-bridge/internal/store"
)

var (
	configPath     string
	installationID string

	appConfig *model.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "redmine-bridge",
	Short: "Create Redmine issues from your automations",
	Long: "redmine-bridge is a thin adapter between automations and a " +
		"self-hosted Redmine instance.\nRun \"redmine-bridge setup\" once to " +
		"configure a connection, then file issues with \"redmine-bridge create\".",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = model.DefaultConfigPath()
		}
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "", "path to config file",
	)
	rootCmd.PersistentFlags().StringVar(
		&installationID, "installation", "",
		"installation ID (may be omitted when only one exists)",
	)

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(createCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openStore opens the installation database named in the config.
func openStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(appConfig.Database)
	if err != nil {
		return nil, fmt.Errorf("opening installation store: %w", err)
	}
	return s, nil
}

// httpClientFor builds the shared outbound HTTP client per the app config.
func httpClientFor(cfg *model.AppConfig) *http.Client {
	if cfg.HTTP.InsecureSkipVerify {
		return redmine.DefaultHTTPClient()
	}
	return &http.Client{}
}

// resolveInstallation picks the target installation: the --installation flag
// when given, otherwise the sole configured installation.
func resolveInstallation(
	ctx context.Context,
	s store.Store,
) (*model.Installation, error) {
	if installationID != "" {
		return s.GetInstallationByID(ctx, installationID)
	}

	installs, err := s.GetInstallations(ctx)
	if err != nil {
		return nil, err
	}
	switch len(installs) {
	case 0:
		return nil, fmt.Errorf("no installation configured; run \"redmine-bridge setup\" first")
	case 1:
		return &installs[0], nil
	default:
		return nil, fmt.Errorf(
			"%d installations configured; pick one with --installation",
			len(installs),
		)
	}
}

// adapterFor builds a transport adapter for the installation, reading its
// API key from the keyring.
func adapterFor(inst *model.Installation) (*redmine.Adapter, error) {
	apiKey, err := credential.GetAPIKey(inst.ID)
	if err != nil {
		return nil, fmt.Errorf("loading API key for %s: %w", inst.RedmineURL, err)
	}
	return redmine.NewAdapter(httpClientFor(appConfig), inst.RedmineURL, apiKey), nil
}

// Package credential stores each installation's Redmine API key in the
// system keyring. The key never touches the installation database; the
// keyring entry and the sqlite row are joined by the installation ID.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "redminebridge"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/redminebridge/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("redminebridge-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func keyName(installationID string) string {
	return "redmine-api-key-" + installationID
}

// GetAPIKey retrieves the Redmine API key stored for an installation.
func GetAPIKey(installationID string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(keyName(installationID))
	if err != nil {
		return "", fmt.Errorf("getting API key for installation %s: %w", installationID, err)
	}

	return string(item.Data), nil
}

// SetAPIKey stores the Redmine API key for an installation.
func SetAPIKey(installationID, apiKey string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  keyName(installationID),
		Data: []byte(apiKey),
	})
	if err != nil {
		return fmt.Errorf("setting API key for installation %s: %w", installationID, err)
	}

	return nil
}

// DeleteAPIKey removes an installation's stored Redmine API key.
func DeleteAPIKey(installationID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(keyName(installationID))
	if err != nil {
		return fmt.Errorf("deleting API key for installation %s: %w", installationID, err)
	}

	return nil
}

package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "acadjobs"

// DefaultAccount is the keyring account holding the LLM API key.
const DefaultAccount = "llm-api-key"

// ErrNoSecret means the keychain holds nothing for the account.
var ErrNoSecret = errors.New("api key not found in keychain")

// GetAPIKey reads the LLM API key stored under account.
func GetAPIKey(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", ErrNoSecret
	}
	key, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", ErrNoSecret
	}
	return key, nil
}

func SetAPIKey(account, key string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, account, key)
}

func DeleteAPIKey(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

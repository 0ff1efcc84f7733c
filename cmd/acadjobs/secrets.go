package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/config"
	"github.com/amishk599/acadjobs/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the LLM API key in the OS keychain",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store the LLM API key",
	Long:  "Stores the LLM API key in the OS keychain. Without an argument the key is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSecretsSet,
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored LLM API key",
	RunE:  runSecretsDelete,
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
}

// keyringAccount uses the configured account when a config is available.
func keyringAccount() string {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return secrets.DefaultAccount
	}
	return cfg.AI.KeyringAccount
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		fmt.Fprint(os.Stderr, "API key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading api key: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == config.PlaceholderAPIKey {
		return fmt.Errorf("refusing to store the placeholder key")
	}

	account := keyringAccount()
	if err := secrets.SetAPIKey(account, key); err != nil {
		return fmt.Errorf("storing api key: %w", err)
	}
	fmt.Printf("API key stored in keychain (service %q, account %q)\n", secrets.KeyringService, account)
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	account := keyringAccount()
	if err := secrets.DeleteAPIKey(account); err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	fmt.Printf("API key removed from keychain (account %q)\n", account)
	return nil
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/acadjobs/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Announce a sample posting",
	Long:  "Sends a sample posting through the configured notifier (log or Slack webhook) to check the setup.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Notification.Type != "slack" {
		logger.Info("notification.type is log, the sample posting is only logged below")
	}

	n := setupNotifier(cfg, newHTTPClient(), logger)
	if err := notifier.SendTestMessage(n); err != nil {
		logger.Error("sample announcement failed", "type", cfg.Notification.Type, "error", err)
		os.Exit(1)
	}
	logger.Info("sample announcement sent", "type", cfg.Notification.Type)
	return nil
}

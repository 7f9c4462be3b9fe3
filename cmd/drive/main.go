package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"drive-go/internal/app"
	"drive-go/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "drive",
	Short:        "Share files with friends through a disclosure ledger",
	SilenceUsage: true,
}

// loadConfig reads the config from the default location.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// withApp reads the config, creates a DriveApp acting as the --as account
// (or the configured default), runs fn, and closes the app. A failing fn
// marks the operation as failed.
func withApp(cmd *cobra.Command, operation string, fn func(a *app.DriveApp) error) (err error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	as, _ := cmd.Flags().GetString("as")
	a, err := app.NewDriveApp(cfg, operation, as)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer func() {
		if err != nil {
			a.MarkFailed()
		}
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(a)
}

func init() {
	rootCmd.PersistentFlags().String("as", "", "Act as this account instead of the configured one")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(friendCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(unshareCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sharedCmd)
	rootCmd.AddCommand(historyCmd)
}

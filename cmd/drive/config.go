package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"drive-go/internal/app"
	"drive-go/internal/config"
	"drive-go/internal/database"
	"drive-go/internal/encryption"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the local journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		account, _ := cmd.Flags().GetString("as")
		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, account, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := database.Init(cfg.Database, hostID); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID:  %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		if account == "" {
			fmt.Println("No default account set: pass --as or edit the config.")
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Host ID:    %s\n", cfg.HostID)
		fmt.Printf("Account:    %s\n", cfg.Account)
		fmt.Printf("Visibility: %s\n", cfg.Visibility)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		for _, v := range cfg.Vaults {
			switch v.Type {
			case "s3":
				fmt.Printf("Vault:      %s (s3://%s/%s)\n", v.Name, v.S3Bucket, v.S3Prefix)
			case "filesystem":
				fmt.Printf("Vault:      %s (%s)\n", v.Name, v.FSVaultRoot)
			default:
				fmt.Printf("Vault:      %s (%s)\n", v.Name, v.Type)
			}
		}
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var configKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
		if enc == nil {
			return fmt.Errorf("encryption is disabled in the config")
		}
		if enc.IsConfigured() {
			return encryption.ErrKeysExist
		}

		passphrase, err := promptPassphrase("Passphrase", true)
		if err != nil {
			return err
		}
		if err := enc.Setup(passphrase); err != nil {
			if errors.Is(err, encryption.ErrKeysExist) {
				return err
			}
			return fmt.Errorf("setting up keys: %w", err)
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s (passphrase protected)\n", cfg.Encryption.PrivateKeyPath)
		if age, ok := enc.(*encryption.AgeEncryptor); ok {
			if r, err := age.Recipient(); err == nil {
				fmt.Printf("Recipient:   %s\n", r)
			}
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configKeysCmd.AddCommand(configKeysInitCmd)
}

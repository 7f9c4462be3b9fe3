package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"drive-go/internal/app"
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage your files",
}

var fileAddCmd = &cobra.Command{
	Use:   "add PATH",
	Short: "Upload a file and add it to your catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		return withApp(cmd, "file add", func(a *app.DriveApp) error {
			f, err := a.UploadFile(args[0], name)
			if err != nil {
				return err
			}
			fmt.Printf("Added %s as %q\n", f.Locator, f.DisplayName)
			return nil
		})
	},
}

var fileRegisterCmd = &cobra.Command{
	Use:   "register LOCATOR",
	Short: "Add content stored elsewhere (e.g. an IPFS hash) to your catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = args[0]
		}
		return withApp(cmd, "file register", func(a *app.DriveApp) error {
			f, err := a.RegisterFile(args[0], name)
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s as %q\n", f.Locator, f.DisplayName)
			return nil
		})
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm LOCATOR",
	Short: "Remove a file from your catalog and revoke its approvals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "file rm", func(a *app.DriveApp) error {
			if err := a.DeleteFile(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

var fileLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "file ls", func(a *app.DriveApp) error {
			files := a.Files()
			if len(files) == 0 {
				fmt.Println("No files.")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%s  %s  %s\n", f.CreatedAt.Format("2006-01-02 15:04:05"), f.Locator, f.DisplayName)
			}
			return nil
		})
	},
}

var fileGetCmd = &cobra.Command{
	Use:   "get OWNER LOCATOR",
	Short: "Download a file you own or that a friend shared with you",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		return withApp(cmd, "file get", func(a *app.DriveApp) error {
			passphrase := func() (string, error) {
				return promptPassphrase("Passphrase", false)
			}
			if out == "" || out == "-" {
				return a.GetFile(args[0], args[1], os.Stdout, passphrase)
			}
			return getToFile(a, args[0], args[1], out, passphrase)
		})
	},
}

// getToFile writes the download to path, removing it if the download fails.
func getToFile(a *app.DriveApp, owner, locator, path string, passphrase func() (string, error)) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := a.GetFile(owner, locator, f, passphrase); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

var fileNameCmd = &cobra.Command{
	Use:   "name OWNER LOCATOR",
	Short: "Show the display name an owner gave a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "file name", func(a *app.DriveApp) error {
			name, err := a.FileName(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(name)
			return nil
		})
	},
}

func init() {
	fileCmd.AddCommand(fileAddCmd)
	fileAddCmd.Flags().String("name", "", "Display name (default: the file's base name)")
	fileCmd.AddCommand(fileRegisterCmd)
	fileRegisterCmd.Flags().String("name", "", "Display name (default: the locator)")
	fileCmd.AddCommand(fileRmCmd)
	fileCmd.AddCommand(fileLsCmd)
	fileCmd.AddCommand(fileGetCmd)
	fileGetCmd.Flags().StringP("output", "o", "", "Write to this path instead of stdout")
	fileCmd.AddCommand(fileNameCmd)
}

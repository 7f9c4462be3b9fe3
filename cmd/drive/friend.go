package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drive-go/internal/app"
)

var friendCmd = &cobra.Command{
	Use:   "friend",
	Short: "Manage your friend list",
}

var friendAddCmd = &cobra.Command{
	Use:   "add ACCOUNT",
	Short: "Add an account to your friend list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "friend add", func(a *app.DriveApp) error {
			if err := a.AddFriend(args[0]); err != nil {
				return err
			}
			fmt.Printf("Added friend %s\n", args[0])
			return nil
		})
	},
}

var friendRmCmd = &cobra.Command{
	Use:   "rm ACCOUNT",
	Short: "Remove a friend and revoke everything you shared with them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "friend rm", func(a *app.DriveApp) error {
			if err := a.RemoveFriend(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed friend %s\n", args[0])
			return nil
		})
	},
}

var friendLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your friends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "friend ls", func(a *app.DriveApp) error {
			friends := a.Friends()
			if len(friends) == 0 {
				fmt.Println("No friends.")
				return nil
			}
			for _, f := range friends {
				marker := "  "
				if f.Mutual {
					marker = "<>"
				}
				fmt.Printf("%s %s\n", marker, f.Account)
			}
			return nil
		})
	},
}

func init() {
	friendCmd.AddCommand(friendAddCmd)
	friendCmd.AddCommand(friendRmCmd)
	friendCmd.AddCommand(friendLsCmd)
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"drive-go/internal/app"
)

var shareCmd = &cobra.Command{
	Use:   "share LOCATOR ACCOUNT...",
	Short: "Approve a file for one or more friends",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "share", func(a *app.DriveApp) error {
			if err := a.Share(args[0], args[1:]); err != nil {
				return err
			}
			fmt.Printf("Shared %s with %d account(s)\n", args[0], len(args)-1)
			return nil
		})
	},
}

var unshareCmd = &cobra.Command{
	Use:   "unshare LOCATOR ACCOUNT...",
	Short: "Withdraw approval of a file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "unshare", func(a *app.DriveApp) error {
			if err := a.Unshare(args[0], args[1:]); err != nil {
				return err
			}
			fmt.Printf("Unshared %s from %d account(s)\n", args[0], len(args)-1)
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status LOCATOR",
	Short: "Show which friends can see a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "status", func(a *app.DriveApp) error {
			st, err := a.Status(args[0])
			if err != nil {
				return err
			}
			for _, f := range st.Approved {
				fmt.Printf("approved      %s\n", f)
			}
			for _, f := range st.NotApproved {
				fmt.Printf("not approved  %s\n", f)
			}
			if len(st.Approved)+len(st.NotApproved) == 0 {
				fmt.Println("No friends.")
			}
			return nil
		})
	},
}

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "List files your friends have shared with you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "shared", func(a *app.DriveApp) error {
			groups := a.SharedWithMe()
			if len(groups) == 0 {
				fmt.Println("Nothing shared with you.")
				return nil
			}
			for _, g := range groups {
				fmt.Printf("%s (%d)\n", g.Friend, len(g.Files))
				for _, f := range g.Files {
					fmt.Printf("  %s  %s\n", f.Locator, f.DisplayName)
				}
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "history", func(a *app.DriveApp) error {
			ops, err := a.GetHistory(limit)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Println("No operations recorded.")
				return nil
			}

			for _, op := range ops {
				duration := ""
				if op.FinishedAt != nil {
					duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Printf("#%d  %-13s  %s  %-10s  %-8s  %s  %s\n",
					op.ID,
					op.Operation,
					op.StartedAt.Format("2006-01-02 15:04:05"),
					op.Account,
					op.Status,
					duration,
					op.Parameters,
				)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}

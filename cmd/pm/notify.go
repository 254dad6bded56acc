package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/logging"
	"github.com/Chatblanccc/PersonnelManagement/internal/notify"
	"github.com/spf13/cobra"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification commands",
	}
	cmd.AddCommand(newNotifyInboxCmd())
	cmd.AddCommand(newNotifyFlushCmd())
	return cmd
}

func newNotifyInboxCmd() *cobra.Command {
	var (
		configPath string
		user       string
		unread     bool
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show a user's notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			u, err := directory.Resolve(gormDB, user)
			if err != nil {
				return err
			}
			userID := user
			if u != nil {
				userID = u.ID
			}
			items, err := notify.Inbox(gormDB, userID, unread)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No notifications.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tREAD\tTYPE\tTITLE")
			for _, n := range items {
				fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\n",
					n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.IsRead, n.Type, truncate(n.Title, 60))
			}
			w.Flush()
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&user, "user", "u", "", "user ID, username or full name")
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.MarkFlagRequired("user")
	return cmd
}

func newNotifyFlushCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Forward undelivered notifications to the chat relay once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Relay.Platform == "" {
				return errs.Validation("relay.platform is not configured")
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			r, err := newRelay(gormDB, cfg.Relay, log.Named("relay"))
			if err != nil {
				return err
			}
			n, err := r.Flush(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d notifications\n", n)
			return err
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

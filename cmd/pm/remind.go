package main

import (
	"fmt"
	"time"

	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/reminder"
	"github.com/spf13/cobra"
)

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Reminder commands",
	}
	cmd.AddCommand(newRemindSendCmd())
	cmd.AddCommand(newRemindSweepCmd())
	return cmd
}

func newRemindSendCmd() *cobra.Command {
	var (
		configPath string
		target     reminder.Target
		sender     string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Notify everyone responsible for a record's open tasks",
		Long: `Creates one notification per user who owns or is assigned to an open task
of the record (--record) or subject (--subject and --group).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sender == "" {
				return errs.Validation("--as is required")
			}
			return runRemindSend(cmd, configPath, target, sender)
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&target.RecordID, "record", "", "record ID")
	cmd.Flags().StringVar(&target.SubjectName, "subject", "", "subject name, used with --group")
	cmd.Flags().StringVar(&target.SubjectGroup, "group", "", "subject group")
	cmd.Flags().StringVar(&sender, "as", "", "name shown as the sender of the reminder")
	return cmd
}

func runRemindSend(cmd *cobra.Command, configPath string, target reminder.Target, sender string) error {
	cfg, gormDB, cat, err := connectWithCatalog(configPath)
	if err != nil {
		return err
	}
	n, err := reminder.Send(gormDB, cat, target, sender, reminder.Options{ReviewPath: cfg.Server.ReviewPath})
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("no open tasks with a notifiable assignee for %s", target)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d notifications for %s\n", n, target)
	return nil
}

func newRemindSweepCmd() *cobra.Command {
	var (
		configPath string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Fire the stage reminder templates due on a day",
		Long: `Runs the scheduled reminder sweep once. Templates already fired for a task
on the same day are skipped, so repeated runs are safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if date != "" {
				parsed, err := parseDateFlag("date", date)
				if err != nil {
					return err
				}
				day = *parsed
			}
			cfg, gormDB, cat, err := connectWithCatalog(configPath)
			if err != nil {
				return err
			}
			n, err := reminder.Sweep(gormDB, cat, day, reminder.Options{ReviewPath: cfg.Server.ReviewPath})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sweep for %s created %d notifications\n", day.Format(dateLayout), n)
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&date, "date", "", "day to sweep (YYYY-MM-DD, default today)")
	return cmd
}

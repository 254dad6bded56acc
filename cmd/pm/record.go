package main

import (
	"fmt"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/record"
	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Employment record commands",
	}
	cmd.AddCommand(newRecordCreateCmd())
	cmd.AddCommand(newRecordShowCmd())
	cmd.AddCommand(newRecordDeleteCmd())
	return cmd
}

func newRecordCreateCmd() *cobra.Command {
	var (
		configPath    string
		id            string
		name          string
		group         string
		entryDate     string
		contractStart string
		status        string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record and generate its approval tasks",
		Long:  "Creates an employment record. Records entering review get one approval task per active stage.",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseDateFlag("entry-date", entryDate)
			if err != nil {
				return err
			}
			start, err := parseDateFlag("contract-start", contractStart)
			if err != nil {
				return err
			}
			return runRecordCreate(cmd, configPath, record.CreateOpts{
				ID:             id,
				SubjectName:    name,
				SubjectGroup:   group,
				EntryDate:      entry,
				ContractStart:  start,
				ApprovalStatus: status,
			})
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&id, "id", "", "record ID (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "subject name (required)")
	cmd.Flags().StringVar(&group, "group", "", "subject group, e.g. department")
	cmd.Flags().StringVar(&entryDate, "entry-date", "", "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&contractStart, "contract-start", "", "contract start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "initial approval status (pending, in_progress, approved, returned)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func runRecordCreate(cmd *cobra.Command, configPath string, opts record.CreateOpts) error {
	cfg, gormDB, cat, err := connectWithCatalog(configPath)
	if err != nil {
		return err
	}
	rec, tasks, err := record.Create(gormDB, cat, opts, approval.GenerateOpts{DefaultSLADays: cfg.Workflow.DefaultSLADays})
	if err != nil {
		return err
	}
	metrics.TasksGenerated.Add(float64(len(tasks)))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created record %s (%s)\n", rec.ID, rec.ApprovalStatus)
	fmt.Fprintf(out, "Generated %d approval tasks\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(out, "  %s  %-14s owner=%s due=%s\n", t.ID, t.StageKey, t.Owner, t.DueDate.Format(dateLayout))
	}
	return nil
}

func newRecordShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a record and its approval state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordShow(cmd, configPath, args[0])
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

func runRecordShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, cat, err := connectWithCatalog(configPath)
	if err != nil {
		return err
	}
	rec, err := record.Get(gormDB, id)
	if err != nil {
		return err
	}
	tasks, err := approval.ForRecord(gormDB, cat, rec.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Record:   %s\n", rec.ID)
	fmt.Fprintf(out, "Subject:  %s (%s)\n", rec.SubjectName, orDash(rec.SubjectGroup))
	fmt.Fprintf(out, "Entry:    %s\n", formatDate(rec.EntryDate))
	fmt.Fprintf(out, "Contract: %s\n", formatDate(rec.ContractStart))
	fmt.Fprintf(out, "Status:   %s\n", rec.ApprovalStatus)
	if rec.ApprovalCompletedAt != nil {
		fmt.Fprintf(out, "Approved: %s\n", rec.ApprovalCompletedAt.Format("2006-01-02 15:04"))
	}

	fmt.Fprintln(out, "\nTasks:")
	active := approval.ActiveSet(tasks, cat.OrderMap())
	for _, t := range tasks {
		marker := " "
		if active[t.ID] && (t.Status == approval.StatusPending || t.Status == approval.StatusInProgress) {
			marker = "*"
		}
		fmt.Fprintf(out, " %s%-14s %-12s owner=%s due=%s\n", marker, t.StageKey, t.Status, t.Owner, t.DueDate.Format(dateLayout))
	}
	return nil
}

func newRecordDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record, keeping its tasks detached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := record.Delete(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %s\n", args[0])
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

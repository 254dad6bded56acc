package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/spf13/cobra"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Workflow stage commands",
	}
	cmd.AddCommand(newStageListCmd())
	cmd.AddCommand(newStageUpdateCmd())
	return cmd
}

func newStageListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow stages in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStageList(cmd, configPath)
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

func runStageList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	view, err := stage.Config(gormDB)
	if err != nil {
		return err
	}

	names := make(map[string]string, len(view.AvailableUsers))
	for i := range view.AvailableUsers {
		names[view.AvailableUsers[i].ID] = view.AvailableUsers[i].DisplayName()
	}

	out := cmd.OutOrStdout()
	if len(view.Stages) == 0 {
		fmt.Fprintln(out, "No stages configured. Run 'pm db init' first.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tKEY\tNAME\tOWNER\tSLA\tACTIVE\tCHECKLIST")
	for _, s := range view.Stages {
		owner := "-"
		if s.OwnerID != nil {
			owner = names[*s.OwnerID]
			if owner == "" {
				owner = *s.OwnerID
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%dd\t%v\t%d\n",
			s.OrderIndex, s.Key, truncate(s.Name, 30), owner, s.SLADays, s.IsActive, len(s.Checklist))
	}
	w.Flush()
	return nil
}

func newStageUpdateCmd() *cobra.Command {
	var (
		configPath string
		owner      string
		assistants []string
		slaDays    int
		slaText    string
		checklist  []string
		active     bool
	)

	cmd := &cobra.Command{
		Use:   "update <key>",
		Short: "Update a stage",
		Long: `Updates the flags that are given and leaves the rest unchanged.
Pass --owner "" to clear the owner.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := stage.UpdateOpts{Key: args[0]}
			flags := cmd.Flags()
			if flags.Changed("owner") {
				u.OwnerID = &owner
			}
			if flags.Changed("assistant") {
				u.AssistantIDs = &assistants
			}
			if flags.Changed("sla-days") {
				u.SLADays = &slaDays
			}
			if flags.Changed("sla-text") {
				u.SLAText = &slaText
			}
			if flags.Changed("checklist") {
				u.Checklist = &checklist
			}
			if flags.Changed("active") {
				u.IsActive = &active
			}
			return runStageUpdate(cmd, configPath, u)
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&owner, "owner", "", "owner user ID")
	cmd.Flags().StringSliceVar(&assistants, "assistant", nil, "assistant user IDs (repeatable)")
	cmd.Flags().IntVar(&slaDays, "sla-days", 0, "SLA in days")
	cmd.Flags().StringVar(&slaText, "sla-text", "", "SLA description")
	cmd.Flags().StringArrayVar(&checklist, "checklist", nil, "checklist item (repeatable)")
	cmd.Flags().BoolVar(&active, "active", true, "whether the stage generates tasks")
	return cmd
}

func runStageUpdate(cmd *cobra.Command, configPath string, u stage.UpdateOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := stage.Update(gormDB, []stage.UpdateOpts{u}); err != nil {
		return err
	}

	var st models.Stage
	if err := gormDB.First(&st, "stage_key = ?", u.Key).Error; err != nil {
		return fmt.Errorf("reload stage %s: %w", u.Key, err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Updated stage %s (%s)\n", st.Key, st.Name)
	fmt.Fprintf(out, "  SLA: %d days  Active: %v\n", st.SLADays, st.IsActive)
	if len(st.Checklist) > 0 {
		fmt.Fprintf(out, "  Checklist: %s\n", strings.Join(st.Checklist, "; "))
	}
	return nil
}

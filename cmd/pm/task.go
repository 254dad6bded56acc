package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Chatblanccc/PersonnelManagement/internal/approval"
	"github.com/Chatblanccc/PersonnelManagement/internal/errs"
	"github.com/Chatblanccc/PersonnelManagement/internal/metrics"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/Chatblanccc/PersonnelManagement/internal/stage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Approval task commands",
	}
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskApproveCmd())
	cmd.AddCommand(newTaskReturnCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		filters    approval.ListFilters
		page       int
		pageSize   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval tasks",
		Long: `Lists approval tasks sorted by due date and priority. Only tasks whose
predecessor stages are complete are shown unless --all is given. With --as,
only tasks owned by or assigned to that identity are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(cmd, configPath, filters, page, pageSize)
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by status (pending, in_progress, completed, returned)")
	cmd.Flags().StringVar(&filters.Stage, "stage", "", "filter by stage key")
	cmd.Flags().StringVarP(&filters.Keyword, "keyword", "k", "", "match subject name, group or owner")
	cmd.Flags().StringVar(&filters.Identity, "as", "", "only tasks owned by or assigned to this identity")
	cmd.Flags().BoolVar(&filters.IncludeDormant, "all", false, "include tasks still waiting on earlier stages")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", approval.DefaultPageSize, "tasks per page")
	return cmd
}

func runTaskList(cmd *cobra.Command, configPath string, filters approval.ListFilters, page, pageSize int) error {
	_, gormDB, cat, err := connectWithCatalog(configPath)
	if err != nil {
		return err
	}
	tasks, total, err := approval.List(gormDB, cat, filters, page, pageSize)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBJECT\tGROUP\tSTAGE\tSTATUS\tPRIORITY\tOWNER\tDUE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, truncate(t.SubjectName, 24), orDash(t.SubjectGroup), stageName(cat, t.StageKey),
			t.Status, t.Priority, t.Owner, t.DueDate.Format(dateLayout))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d of %d tasks\n", len(tasks), total)
	return nil
}

func newTaskShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its checklist and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskShow(cmd, configPath, args[0])
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

func runTaskShow(cmd *cobra.Command, configPath, id string) error {
	_, gormDB, cat, err := connectWithCatalog(configPath)
	if err != nil {
		return err
	}
	task, err := approval.Get(gormDB, id)
	if err != nil {
		return err
	}
	history, err := approval.History(gormDB, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTask(out, cat, task)
	if len(task.CheckItems) > 0 {
		fmt.Fprintln(out, "\nChecklist:")
		for _, item := range task.CheckItems {
			box := "[ ]"
			if item.Completed {
				box = "[x]"
			}
			fmt.Fprintf(out, "  %s %s\n", box, item.Label)
		}
	}
	fmt.Fprintln(out, "\nHistory:")
	for _, h := range history {
		fmt.Fprintf(out, "  %s  %-9s %s", h.CreatedAt.Format("2006-01-02 15:04"), h.Action, h.Operator)
		if h.Comment != "" {
			fmt.Fprintf(out, ": %s", h.Comment)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printTask(out io.Writer, cat *stage.Catalog, t *models.ApprovalTask) {
	fmt.Fprintf(out, "Task:      %s\n", t.ID)
	fmt.Fprintf(out, "Subject:   %s (%s)\n", t.SubjectName, orDash(t.SubjectGroup))
	fmt.Fprintf(out, "Stage:     %s\n", stageName(cat, t.StageKey))
	fmt.Fprintf(out, "Status:    %s\n", t.Status)
	fmt.Fprintf(out, "Priority:  %s\n", t.Priority)
	fmt.Fprintf(out, "Owner:     %s\n", t.Owner)
	fmt.Fprintf(out, "Assignees: %s\n", orDash(strings.Join(t.AssigneeNames(), ", ")))
	fmt.Fprintf(out, "Due:       %s\n", t.DueDate.Format(dateLayout))
	if t.LatestAction != "" {
		fmt.Fprintf(out, "Latest:    %s\n", t.LatestAction)
	}
}

func stageName(cat *stage.Catalog, key string) string {
	if st, ok := cat.Get(key); ok && st.Name != "" {
		return st.Name
	}
	return key
}

type transitionFunc func(*gorm.DB, *stage.Catalog, string, approval.Actor, string) (*models.ApprovalTask, error)

func newTaskApproveCmd() *cobra.Command {
	return newTaskTransitionCmd("approve", "Approve a task, unblocking the next stage", approval.ActionApproved, approval.Approve)
}

func newTaskReturnCmd() *cobra.Command {
	return newTaskTransitionCmd("return", "Return a task for rework", approval.ActionReturned, approval.Return)
}

func newTaskTransitionCmd(verb, short, action string, fn transitionFunc) *cobra.Command {
	var (
		configPath string
		actor      approval.Actor
		comment    string
	)

	cmd := &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor.Name == "" {
				return errs.Validation("--as is required")
			}
			_, gormDB, cat, err := connectWithCatalog(configPath)
			if err != nil {
				return err
			}
			task, err := fn(gormDB, cat, args[0], actor, comment)
			metrics.TaskTransitions.WithLabelValues(action, metrics.Result(err)).Inc()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s %s (%s, %s)\n", task.ID, action, task.SubjectName, stageName(cat, task.StageKey))
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	addActorFlags(cmd, &actor)
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "comment recorded in the task history")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var (
		configPath string
		actor      approval.Actor
		recordID   string
		subject    string
		group      string
	)

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task, or a whole flow by record or subject",
		Long: `Deletes one task by ID. With --record, or --subject and --group, deletes
every task in that approval flow instead, which requires --elevated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, cat, err := connectWithCatalog(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case len(args) == 1:
				if actor.Name == "" && !actor.Elevated {
					return errs.Validation("--as or --elevated is required")
				}
				if err := approval.DeleteTask(gormDB, cat, args[0], actor); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted task %s\n", args[0])
			case recordID != "":
				n, err := approval.DeleteByRecord(gormDB, cat, recordID, actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d tasks of record %s\n", n, recordID)
			case subject != "":
				n, err := approval.DeleteBySubject(gormDB, cat, subject, group, actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %d tasks of %s (%s)\n", n, subject, orDash(group))
			default:
				return errs.Validation("a task id, --record, or --subject is required")
			}
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	addActorFlags(cmd, &actor)
	cmd.Flags().StringVar(&recordID, "record", "", "delete every task of this record")
	cmd.Flags().StringVar(&subject, "subject", "", "delete every task of this subject name")
	cmd.Flags().StringVar(&group, "group", "", "subject group, used with --subject")
	return cmd
}

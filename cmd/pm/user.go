package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Chatblanccc/PersonnelManagement/internal/directory"
	"github.com/Chatblanccc/PersonnelManagement/internal/models"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Directory user commands",
	}
	cmd.AddCommand(newUserSyncCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserSyncCmd() *cobra.Command {
	var (
		configPath string
		file       string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Load users from a directory snapshot file",
		Long: `Upserts users from a YAML snapshot exported from the identity provider.
Users are matched by username; existing rows are updated in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := directory.LoadFile(file)
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			n, err := directory.Sync(gormDB, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d users\n", n)
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&file, "file", "f", "", "directory snapshot (YAML with a users: list)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newUserListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			var users []models.User
			if err := gormDB.Order("username ASC").Find(&users).Error; err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users. Run 'pm user sync' first.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tACTIVE\tSUPERUSER\tPERMISSIONS")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%v\t%s\n",
					u.ID, u.Username, orDash(u.FullName), u.IsActive, u.IsSuperuser, orDash(strings.Join(u.Permissions, ",")))
			}
			w.Flush()
			return nil
		},
	}
	addConfigFlag(cmd, &configPath)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/workflow"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage catalog projects",
	}
	projectCmd.AddCommand(newProjectCreateCommand(ctx))
	projectCmd.AddCommand(newProjectListCommand(ctx))
	projectCmd.AddCommand(newProjectArchiveCommand(ctx))
	return projectCmd
}

func newProjectCreateCommand(ctx *commandContext) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				project, err := mgr.CreateProject(c, args[0], description)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, project, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Name, project.ID)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func newProjectListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				projects, err := mgr.ListProjects(c)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, projects, func() {
					printTable(cmd, "No projects", []string{"ID", "Name", "Status", "Created"}, projectRows(projects), nil)
				})
			})
		},
	}
}

func newProjectArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <project-id>",
		Short: "Archive a project so it accepts no new products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				project, err := mgr.ArchiveProject(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, project, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Archived project %s\n", project.Name)
				})
			})
		},
	}
}

func projectRows(projects []*catalog.Project) [][]string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.ID, p.Name, string(p.Status), formatTime(p.CreatedAt)})
	}
	return rows
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

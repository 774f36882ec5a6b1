package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/publishing"
	"curator/internal/workflow"
)

func newTargetCommand(ctx *commandContext) *cobra.Command {
	targetCmd := &cobra.Command{
		Use:   "target",
		Short: "Manage publish targets",
	}
	targetCmd.AddCommand(newTargetCreateCommand(ctx))
	targetCmd.AddCommand(newTargetListCommand(ctx))
	return targetCmd
}

func newTargetCreateCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var settings []string
	cmd := &cobra.Command{
		Use:   "create <project-id> <name>",
		Short: "Create a publish target",
		Long: "Create a publish target. Kinds: none, file, webhook, s3.\n" +
			"Destination settings are passed with --set, e.g. --set url=https://example.com/hook.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseAttributes(settings)
			if err != nil {
				return err
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				target, err := mgr.Publishing().CreateTarget(c, publishing.NewTarget{
					ProjectID: args[0],
					Name:      args[1],
					Kind:      kind,
					Config:    cfg,
				})
				if err != nil {
					return err
				}
				return ctx.emit(cmd, target, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Created %s target %s (%s)\n", target.Kind, target.Name, target.ID)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Destination kind (defaults to publishing.default_kind)")
	cmd.Flags().StringArrayVar(&settings, "set", nil, "Destination setting as key=value (repeatable)")
	return cmd
}

func newTargetListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List publish targets of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				targets, err := mgr.Publishing().ListTargets(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, targets, func() {
					rows := make([][]string, 0, len(targets))
					for _, target := range targets {
						rows = append(rows, []string{target.ID, target.Name, target.Kind, formatOptionalTime(target.LastPublishAt)})
					}
					printTable(cmd, "No targets", []string{"ID", "Name", "Kind", "Last Publish"}, rows, nil)
				})
			})
		},
	}
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish golden records to a target",
	}
	publishCmd.AddCommand(newPublishRunCommand(ctx))
	publishCmd.AddCommand(newPublishApprovedCommand(ctx))
	publishCmd.AddCommand(newPublishHistoryCommand(ctx))
	return publishCmd
}

func newPublishRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <target-id> <product-id>...",
		Short: "Publish specific products",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				history, err := mgr.Publishing().Publish(c, args[0], args[1:])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, history, func() { renderPublish(cmd, history) })
			})
		},
	}
}

func newPublishApprovedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approved <target-id>",
		Short: "Publish every approved product of the target's project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				history, err := mgr.Publishing().PublishApproved(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, history, func() { renderPublish(cmd, history) })
			})
		},
	}
}

func newPublishHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <target-id>",
		Short: "Show publish history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				history, err := mgr.Publishing().ListHistory(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, history, func() {
					rows := make([][]string, 0, len(history))
					for _, h := range history {
						rows = append(rows, []string{h.ID, string(h.Status), strconv.Itoa(h.ProductCount), strconv.Itoa(len(h.Errors)), formatTime(h.CreatedAt)})
					}
					printTable(cmd, "No publishes yet", []string{"ID", "Status", "Products", "Errors", "When"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
				})
			})
		},
	}
}

func renderPublish(cmd *cobra.Command, history *catalog.PublishHistory) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Publish %s: %s, %s\n", history.ID, strings.ToUpper(string(history.Status)), countLabel(history.ProductCount, "product"))
	for _, e := range history.Errors {
		if e.Skipped {
			fmt.Fprintf(out, "  %s: skipped (%s)\n", e.ProductID, e.Message)
			continue
		}
		if e.ProductID != "" {
			fmt.Fprintf(out, "  %s: %s\n", e.ProductID, e.Message)
			continue
		}
		fmt.Fprintf(out, "  %s\n", e.Message)
	}
}

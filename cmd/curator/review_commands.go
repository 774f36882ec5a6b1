package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/catalog"
	"curator/internal/workflow"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Work the validation queue",
	}
	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewSetCommand(ctx))
	reviewCmd.AddCommand(newReviewApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewStatsCommand(ctx))
	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List queue items, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *catalog.ReviewStatus
			if raw := strings.TrimSpace(statusFlag); raw != "" {
				status, ok := catalog.ParseReviewStatus(raw)
				if !ok {
					return fmt.Errorf("unknown review status %q", raw)
				}
				filter = &status
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				items, err := mgr.Review().ListItems(c, args[0], filter)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, items, func() {
					rows := make([][]string, 0, len(items))
					for _, item := range items {
						rows = append(rows, []string{item.ID, item.ProductID, string(item.Status), item.Notes, formatOptionalTime(item.ReviewedAt)})
					}
					printTable(cmd, "Queue is empty", []string{"Item", "Product", "Status", "Notes", "Reviewed"}, rows, nil)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (pending, in_review, approved, rejected, flagged)")
	return cmd
}

func newReviewSetCommand(ctx *commandContext) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "set <item-id> <status>",
		Short: "Set the review status of a queue item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				item, err := mgr.Review().SetStatusString(c, args[0], args[1], notesPtr)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, item, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Item %s is now %s\n", item.ID, item.Status)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Reviewer notes (an empty value clears them)")
	return cmd
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <item-id>...",
		Short: "Approve several queue items at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				updated, err := mgr.Review().BulkApprove(c, args)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, map[string]int64{"updated": updated}, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Approved %s\n", countLabel(int(updated), "item"))
				})
			})
		},
	}
}

func newReviewStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <project-id>",
		Short: "Show queue counts by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				stats, err := mgr.Review().GetStats(c, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, stats, func() {
					rows := [][]string{
						{"pending", strconv.Itoa(stats.Pending)},
						{"in_review", strconv.Itoa(stats.InReview)},
						{"approved", strconv.Itoa(stats.Approved)},
						{"rejected", strconv.Itoa(stats.Rejected)},
						{"flagged", strconv.Itoa(stats.Flagged)},
						{"total", strconv.Itoa(stats.Total)},
					}
					printTable(cmd, "", []string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				})
			})
		},
	}
}

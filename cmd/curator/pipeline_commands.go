package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/pipeline"
	"curator/internal/workflow"
)

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the curation pipeline",
	}
	pipelineCmd.AddCommand(newPipelineRunCommand(ctx))
	return pipelineCmd
}

func newPipelineRunCommand(ctx *commandContext) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "run [product-id...]",
		Short: "Run products through every stage",
		Long: "Run the listed products through aggregate, cleanse, standardize, validate_rules,\n" +
			"enrich and golden_record. Use --project to run every product of a project.",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID = strings.TrimSpace(projectID)
			if projectID == "" && len(args) == 0 {
				return errors.New("provide product ids or --project")
			}
			if projectID != "" && len(args) > 0 {
				return errors.New("product ids and --project are mutually exclusive")
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				var result pipeline.BatchResult
				if projectID != "" {
					var err error
					result, err = mgr.RunProject(c, projectID)
					if err != nil {
						return err
					}
				} else {
					result = mgr.RunBatch(c, args)
				}
				return ctx.emit(cmd, result, func() {
					renderBatch(cmd, result)
				})
			})
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Run every product in this project")
	return cmd
}

func renderBatch(cmd *cobra.Command, result pipeline.BatchResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d: %d succeeded, %d failed in %s\n",
		result.SuccessCount+result.FailureCount, result.SuccessCount, result.FailureCount,
		result.Duration.Round(time.Millisecond))
	if len(result.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Failures))
	for _, failure := range result.Failures {
		rows = append(rows, []string{failure.ProductID, displayStage(failure.Stage), failure.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Product", "Stage", "Error"}, rows, nil))
}

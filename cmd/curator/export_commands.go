package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/workflow"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export approved golden records",
	}
	exportCmd.AddCommand(newExportCSVCommand(ctx))
	exportCmd.AddCommand(newExportXLSXCommand(ctx))
	return exportCmd
}

func newExportCSVCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "csv <project-id>",
		Short: "Export approved records as CSV (stdout unless --output)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				if _, err := mgr.GetProject(c, args[0]); err != nil {
					return err
				}
				body, err := mgr.Publishing().ExportCSV(c, args[0])
				if err != nil {
					return err
				}
				if strings.TrimSpace(outputPath) == "" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), body)
					return err
				}
				if err := os.WriteFile(outputPath, []byte(body), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newExportXLSXCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "xlsx <project-id>",
		Short: "Export approved records as an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(outputPath) == "" {
				return fmt.Errorf("--output is required for xlsx exports")
			}
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				if _, err := mgr.GetProject(c, args[0]); err != nil {
					return err
				}
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create export: %w", err)
				}
				if err := mgr.Publishing().ExportXLSX(c, args[0], file); err != nil {
					_ = file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Workbook path")
	return cmd
}

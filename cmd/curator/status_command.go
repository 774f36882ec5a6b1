package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/daemonrun"
	"curator/internal/preflight"
	"curator/internal/workflow"
)

type statusReport struct {
	ServerPID int                    `json:"serverPid,omitempty"`
	Workflow  workflow.StatusSummary `json:"workflow"`
	Preflight []preflight.Result     `json:"preflight"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog metrics, stage health and preflight checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				report := statusReport{
					ServerPID: daemonrun.ReadPID(mgr.Config()),
					Workflow:  mgr.Status(c),
					Preflight: preflight.RunAll(c, mgr.Config()),
				}
				return ctx.emit(cmd, report, func() {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(statusLines(report, shouldColorize(cmd.OutOrStdout())), "\n"))
				})
			})
		},
	}
}

func statusLines(report statusReport, colorize bool) []string {
	p := &statusPrinter{colorize: colorize}

	p.section("Server")
	if report.ServerPID > 0 {
		p.check("Curator server", stateOK, "Running (pid "+strconv.Itoa(report.ServerPID)+")")
	} else {
		p.check("Curator server", stateInfo, "Not running")
	}
	p.check("Database", stateInfo, report.Workflow.DatabasePath)

	metrics := report.Workflow.Metrics
	p.section("Catalog")
	p.check("Projects", stateInfo, fmt.Sprintf("%d (%d active)", metrics.TotalProjects, metrics.ActiveProjects))
	p.check("Products", stateInfo, strconv.Itoa(metrics.TotalProducts))
	p.check("Published products", stateInfo, strconv.Itoa(metrics.PublishedProducts))

	p.section("Stages")
	for _, health := range report.Workflow.StageHealth {
		state, detail := stageState(health)
		p.check(health.Name, state, detail)
	}

	p.section("Preflight")
	for _, result := range report.Preflight {
		p.check(result.Name, preflightState(result), result.Detail)
	}
	return p.lines
}

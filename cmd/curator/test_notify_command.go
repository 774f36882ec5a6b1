package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/workflow"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(cmd, func(c context.Context, mgr *workflow.Manager) error {
				sent, message, err := mgr.TestNotification(c)
				if message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), message)
				} else if !sent {
					fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
				}
				return err
			})
		},
	}
}

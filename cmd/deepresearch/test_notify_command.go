package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"deepresearch/internal/logging"
	"deepresearch/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through every configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd)
			if err != nil {
				return err
			}
			svc, err := notifications.NewService(cfg, notifications.WithLogger(
				logging.ComponentLevel(logger, "notifications", cfg.Logging.ComponentOverrides)))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(svc.Channels()) == 0 {
				fmt.Fprintln(out, "No notification channels configured")
				return nil
			}
			ack, err := svc.TestNotification(cmd.Context())
			if err != nil {
				return fmt.Errorf("test notification: %w", err)
			}
			fmt.Fprintf(out, "Test notification sent via %s\n", ack.Channel)
			if ref := strings.TrimSpace(ack.Reference); ref != "" {
				fmt.Fprintf(out, "Reference: %s\n", ref)
			}
			return nil
		},
	}
}

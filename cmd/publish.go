package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-mailqueue/app/auth"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
)

var publishFlags auth.Payload

var publishCmd = &cobra.Command{
	Use:   "publish <event>",
	Short: "Enqueue an auth email",
	Long: "Enqueue the email for an auth event. Events: " + eventNames() + ".\n" +
		"Request events (EmailVerificationRequest, PasswordResetRequest) use --hash.",
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishFlags.ToAddress, "to", "", "recipient address")
	publishCmd.Flags().StringVar(&publishFlags.ToName, "name", "", "recipient display name")
	publishCmd.Flags().StringVar(&publishFlags.Subject, "subject", "", "subject override")
	publishCmd.Flags().StringVar(&publishFlags.VerificationHash, "hash", "", "verification hash")
	_ = publishCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(publishCmd)
}

func eventNames() string {
	names := make([]string, 0, len(auth.Events()))
	for _, e := range auth.Events() {
		names = append(names, string(e))
	}
	return strings.Join(names, ", ")
}

func runPublish(cmd *cobra.Command, args []string) error {
	event, err := auth.ParseEvent(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	producer := queue.NewEmailProducer(rdb, topologyFromConfig(cfg), queue.Hooks{})
	if err := auth.NewNotifier(producer, logger).Notify(ctx, event, publishFlags); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s email queued for %s\n", event, publishFlags.ToAddress)
	return nil
}

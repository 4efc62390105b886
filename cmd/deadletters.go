package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
	"github.com/vibast-solutions/ms-go-mailqueue/config"
)

var deadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "Inspect the dead-letter stream",
}

var deadLettersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent dead-lettered jobs",
	RunE:  runDeadLettersList,
}

var deadLettersCount int64

func init() {
	deadLettersListCmd.Flags().Int64Var(&deadLettersCount, "count", 20, "maximum number of entries")

	deadLettersCmd.AddCommand(deadLettersListCmd)
	rootCmd.AddCommand(deadLettersCmd)
}

func runDeadLettersList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rdb, err := newRedisClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	entries, err := queue.ListDeadLetters(cmd.Context(), rdb, topologyFromConfig(cfg), deadLettersCount)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFAILED AT\tREASON\tATTEMPT\tSOURCE ID\tERROR\tPAYLOAD")
	for _, d := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			d.ID, d.FailedAt, d.Reason, d.Attempt, d.SourceID, d.Error, d.Payload)
	}
	return w.Flush()
}

package cmd

import (
	"github.com/spf13/cobra"

	"membench/internal/config"
)

var mutilateCmd = &cobra.Command{
	Use:   "mutilate",
	Short: "Benchmark a memcache server using the mutilate tool",
	Long: `
Runs the latency-oriented sweep: for every client connection count in the
range, the server is restarted, mutilate runs for the configured duration,
and the latency spread for the selected scenario plus QPS and RX/TX rates
are recorded.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweep(cmd, config.Mutilate)
	},
}

func init() {
	addCommonFlags(mutilateCmd)
	mutilateCmd.Flags().String("scenario", "", "benchmark scenario to run ('read' or 'update')")
	mutilateCmd.Flags().String("server-cpu-isolate", "", "list of processors to isolate server threads from, e.g. '0,2-3' (default: disabled)")
}

package cmd

import (
	"github.com/spf13/cobra"

	"membench/internal/config"
)

var memaslapCmd = &cobra.Command{
	Use:   "memaslap",
	Short: "Benchmark a memcache server using the memaslap tool",
	Long: `
Runs the throughput-oriented sweep: for every client connection count in
the range, the server is restarted, a sar resource probe is started on
the server host, memaslap runs for the configured duration, and the TPS,
network rate and CPU utilization averages are recorded.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweep(cmd, config.Memaslap)
	},
}

func init() {
	addCommonFlags(memaslapCmd)
}

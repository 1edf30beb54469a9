package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "membench",
	Short: "Membench - Memcache server benchmark harness",
	Long: `
Membench sweeps a client-concurrency range against a remote memcache
server, restarting the server between samples and collecting the load
tool's metrics into a tab-separated result stream.

Two backends are supported:
1. memaslap: throughput-oriented (TPS, network rate, CPU utilization)
2. mutilate: latency-oriented (percentile spread, QPS, RX/TX rates)`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(memaslapCmd)
	rootCmd.AddCommand(mutilateCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.membench.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".membench")
		}
	}

	viper.SetEnvPrefix("MEMBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

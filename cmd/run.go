package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"membench/internal/client"
	"membench/internal/config"
	"membench/internal/extract"
	"membench/internal/remote"
	"membench/internal/server"
	"membench/internal/sink"
	"membench/internal/sweep"
)

// addCommonFlags registers the flags both backends share. Backend-specific
// flags (scenario, cpu-isolate) live with their subcommand.
func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server-host", "", "host name of the server to benchmark")
	f.String("server-cmd", "", "command to start the server with")
	f.Int("server-tcp-port", 11211, "TCP port the server listens on")
	f.Int("server-threads", 0, "number of server threads to use")
	f.Int("server-memory", 0, "amount of server memory to use in megabytes")
	f.String("server-cpu-affinity", "", "list of processors to run server threads on, e.g. '0,2-3' (default: disabled)")
	f.Int("server-startup-wait", 5, "seconds to wait for the server to start up before benchmarking")
	f.String("client-cmd", "", "command to start the client with")
	f.Int("client-threads", 0, "number of client threads to use")
	f.String("client-connections", "", "range of client connection counts, e.g. '10,21,5' for 10, 15 and 20")
	f.Int("samples", 0, "number of samples to measure per connection count")
	f.Int("duration", 0, "duration of each measurement in seconds")
	f.Bool("dry-run", false, "print commands to be executed but don't run them")
	f.String("output", "", "output file")
}

// buildConfig reads the executed command's flags through viper, so env
// vars (MEMBENCH_*) and the optional config file can fill in anything not
// given on the command line.
func buildConfig(cmd *cobra.Command, backend config.Backend) (*config.RunConfig, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := &config.RunConfig{
		Backend:           backend,
		ServerHost:        viper.GetString("server-host"),
		ServerCmd:         viper.GetString("server-cmd"),
		ServerTCPPort:     viper.GetInt("server-tcp-port"),
		ServerThreads:     viper.GetInt("server-threads"),
		ServerMemoryMB:    viper.GetInt("server-memory"),
		ServerCPUAffinity: viper.GetString("server-cpu-affinity"),
		ServerStartupWait: viper.GetInt("server-startup-wait"),
		ClientCmd:         viper.GetString("client-cmd"),
		ClientThreads:     viper.GetInt("client-threads"),
		ClientConnections: viper.GetString("client-connections"),
		Samples:           viper.GetInt("samples"),
		DurationSec:       viper.GetInt("duration"),
		DryRun:            viper.GetBool("dry-run"),
		OutputPath:        viper.GetString("output"),
		SarIntervalSec:    5,
	}

	if backend == config.Mutilate {
		scenario, err := config.ParseScenario(viper.GetString("scenario"))
		if err != nil {
			return nil, err
		}
		cfg.Scenario = scenario
		cfg.ServerCPUIsolate = viper.GetString("server-cpu-isolate")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() *zap.SugaredLogger {
	zcfg := zap.NewDevelopmentConfig()
	if !viper.GetBool("verbose") {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	return logger.Sugar()
}

// printHeader goes to stderr so the stdout transcript stays identical to
// the output file plus command echoes.
func printHeader(cfg *config.RunConfig) {
	fmt.Fprintf(os.Stderr, "STARTING MEMBENCH SWEEP\n")
	fmt.Fprintf(os.Stderr, "======================================================================\n")
	fmt.Fprintf(os.Stderr, "Backend    : %s\n", cfg.Backend)
	fmt.Fprintf(os.Stderr, "Server     : %s (%s)\n", cfg.ServerAddr(), cfg.ServerCmd)
	fmt.Fprintf(os.Stderr, "Client     : %s, %d threads\n", cfg.ClientCmd, cfg.ClientThreads)
	fmt.Fprintf(os.Stderr, "Connections: %s, %d samples x %ds\n", cfg.ClientConnections, cfg.Samples, cfg.DurationSec)
	if cfg.DryRun {
		fmt.Fprintf(os.Stderr, "Mode       : dry run\n")
	}
	fmt.Fprintf(os.Stderr, "======================================================================\n")
}

// runSweep wires the collaborators together and executes the run. It is
// the shared body of both subcommands.
func runSweep(cmd *cobra.Command, backend config.Backend) {
	cfg, err := buildConfig(cmd, backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log := newLogger()
	defer log.Sync()

	printHeader(cfg)

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		log.Errorw("cannot create output file", "path", cfg.OutputPath, "error", err)
		os.Exit(1)
	}
	defer out.Close()

	exec := remote.Local{}
	ctl := sweep.NewController(
		cfg,
		server.NewController(cfg, exec, log),
		client.NewProber(cfg, exec),
		extract.ForBackend(cfg),
		sink.New(os.Stdout, out),
		log,
	)

	if err := ctl.Run(); err != nil {
		var perr *server.ProcessError
		if errors.As(err, &perr) {
			log.Errorw("run aborted", "error", err)
		} else {
			log.Errorw("run incomplete", "error", err)
		}
		os.Exit(1)
	}
}

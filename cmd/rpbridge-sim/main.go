// Command rpbridge-sim is an interactive simulator for the subscription
// lifecycle. It runs the bridge against an in-process fake of the modeling
// tool so advise, unadvise, notifications and implicit cleanup can be
// exercised without the tool installed.
//
// Usage:
//
//	rpbridge-sim [flags]
//
// Flags:
//
//	-c, --config string   Configuration file path (.yaml or .toml)
//	    --app string      Application ID of the simulated tool (default "sim-app")
//	    --project string  Project file opened in the simulated tool
//
// Relayed notifications are printed unless nats.url is configured. Lifecycle
// events are kept in memory and shown by the trace command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rpbridge/rpbridge-go/pkg/bridge"
	"github.com/rpbridge/rpbridge-go/pkg/config"
	"github.com/rpbridge/rpbridge-go/pkg/log"
	"github.com/rpbridge/rpbridge-go/pkg/native/fake"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, appID, project string

	cmd := &cobra.Command{
		Use:          "rpbridge-sim",
		Short:        "Interactive subscription lifecycle simulator",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, appID, project)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file path")
	cmd.Flags().StringVar(&appID, "app", "sim-app", "application ID of the simulated tool")
	cmd.Flags().StringVar(&project, "project", "model.qea", "project file opened in the simulated tool")
	return cmd
}

func run(configPath, appID, project string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rpbridge> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Log through readline to keep the prompt intact.
	logger := cfg.NewLogger(rl.Stderr())

	tool := fake.NewTool(fake.WithLogger(logger))
	app := fake.NewApplication(appID)
	app.Open(fake.NewProject("{"+appID+"-root}", "Model", project))

	rec := &log.Recorder{}
	opts := bridge.Options{Logger: logger, Trace: rec}
	if cfg.NATS.URL == "" {
		opts.Publisher = &consolePublisher{out: rl.Stdout()}
	}
	b, err := bridge.New(cfg, tool, opts)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := b.Start(ctx, app); err != nil {
		logger.Warn("not all listeners connected", "error", err)
	}

	NewShell(b, tool, app, rec, rl.Stdout()).Run(ctx, rl)
	return nil
}

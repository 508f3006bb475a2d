// Command rpbridge-trace is a tool for viewing and analyzing subscription
// lifecycle traces.
//
// Trace files are written by the bridge when a trace file is configured
// (trace_file or RPBRIDGE_TRACE_FILE).
//
// Usage:
//
//	rpbridge-trace <command> [flags] <file.rtrace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSON or CSV format
//	filter   Filter trace file and write to new file
//	stats    Show statistics, including leaked handles
//
// Examples:
//
//	# View only implicit cleanups
//	rpbridge-trace view --origin cleanup bridge.rtrace
//
//	# Export to JSONL
//	rpbridge-trace export --format jsonl bridge.rtrace
//
//	# Keep one listener kind
//	rpbridge-trace filter --kind import -o import.rtrace bridge.rtrace
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rpbridge/rpbridge-go/cmd/rpbridge-trace/commands"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rpbridge-trace",
		Short:        "Subscription trace analyzer",
		SilenceUsage: true,
	}
	root.AddCommand(newViewCmd(), newExportCmd(), newFilterCmd(), newStatsCmd())
	return root
}

func filterFlags(fs *pflag.FlagSet) *commands.FilterOptions {
	var o commands.FilterOptions
	fs.StringVar(&o.SubscriptionID, "sub-id", "", "filter by subscription ID")
	fs.StringVar(&o.Kind, "kind", "", "filter by listener kind")
	fs.StringVar(&o.Source, "source", "", "filter by source ID")
	fs.StringVar(&o.TimeStart, "time-start", "", "filter events at or after this time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "filter events before this time (RFC3339)")
	fs.StringVar(&o.Category, "category", "", "filter by category (state, native, notification, error)")
	fs.StringVar(&o.Origin, "origin", "", "filter by origin (caller, cleanup, native)")
	return &o
}

func newViewCmd() *cobra.Command {
	var opts *commands.FilterOptions
	cmd := &cobra.Command{
		Use:   "view [flags] <file.rtrace>",
		Short: "View trace file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.Filter()
			if err != nil {
				return err
			}
			return commands.RunView(args[0], filter, cmd.OutOrStdout())
		},
	}
	opts = filterFlags(cmd.Flags())
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export [flags] <file.rtrace>",
		Short: "Export trace file to JSON or CSV format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunExport(args[0], format, output)
		},
	}
	cmd.Flags().StringVar(&format, "format", "jsonl", "output format (jsonl, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newFilterCmd() *cobra.Command {
	var (
		output string
		opts   *commands.FilterOptions
	)
	cmd := &cobra.Command{
		Use:   "filter [flags] <file.rtrace>",
		Short: "Filter trace file and write to new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := commands.RunFilter(args[0], output, *opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Filtered %d events to %s\n", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	_ = cmd.MarkFlagRequired("output")
	opts = filterFlags(cmd.Flags())
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.rtrace>",
		Short: "Show statistics, including leaked handles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunStats(args[0], cmd.OutOrStdout())
		},
	}
}

// Command rpbridge-listenergen generates the listener kinds in pkg/listener
// from listeners.yaml.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/tools/imports"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:           "rpbridge-listenergen",
		Short:         "Generate listener kinds from a YAML descriptor",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, input, output)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "listeners.yaml", "listener descriptor")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory for generated Go files")
	return cmd
}

func run(cmd *cobra.Command, input, output string) error {
	f, err := LoadListenerFile(input)
	if err != nil {
		return fmt.Errorf("loading listeners: %w", err)
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	code, err := GenerateKinds(f)
	if err != nil {
		return fmt.Errorf("generating kinds: %w", err)
	}
	if err := writeFormatted(filepath.Join(output, "kinds_gen.go"), code); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  generated %s\n", filepath.Join(output, "kinds_gen.go"))

	for _, def := range f.Listeners {
		code, err := GenerateListener(f.Package, def)
		if err != nil {
			return fmt.Errorf("generating %s: %w", def.Name, err)
		}
		path := filepath.Join(output, listenerFileName(def.Name))
		if err := writeFormatted(path, code); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  generated %s\n", path)
	}
	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Keep the raw output for debugging the templates.
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}

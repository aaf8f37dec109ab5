package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sticky",
	Short: "Sticky is a transition planner for hierarchical routers with sticky states",
	Long: `Sticky loads a state tree and shows how a router moves through it: which states
are entered, reactivated, parked or exited on every transition.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("tree", "sticky.yaml", "State tree: a .yaml/.yml/.json file or a directory of markdown states")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// newRouter loads the tree named by --tree into a router positioned at the root.
func newRouter(cmd *cobra.Command, opts ...sticky.Option) (*sticky.Router, *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	source, _ := cmd.Flags().GetString("tree")

	opts = append([]sticky.Option{sticky.WithLogger(logger)}, opts...)
	router, err := sticky.New(cmd.Context(), source, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing router: %w", err)
	}
	return router, logger, nil
}

func toParams(kv map[string]string) domain.Params {
	params := make(domain.Params, len(kv))
	for k, v := range kv {
		params[k] = v
	}
	return params
}

func displayName(name string) string {
	if name == domain.RootName {
		return "(root)"
	}
	return name
}

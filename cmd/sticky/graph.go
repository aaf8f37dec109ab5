package main

import (
	"fmt"

	"github.com/aretw0/sticky/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the state tree visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the state tree. Sticky states are drawn
as stadiums. With --via the router walks through the given states first and the
active path and parked states are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		router, _, err := newRouter(cmd)
		if err != nil {
			return err
		}

		via, _ := cmd.Flags().GetStringArray("via")
		var overlay *graph.GraphOverlay
		if len(via) > 0 {
			for _, step := range via {
				name, params, err := parseStep(step)
				if err != nil {
					return err
				}
				if plan, err := router.TransitionTo(cmd.Context(), name, params); plan == nil {
					return fmt.Errorf("cannot reach %q: %w", name, err)
				}
			}
			overlay = &graph.GraphOverlay{}
			for _, inst := range router.ActivePath() {
				overlay.ActivePath = append(overlay.ActivePath, inst.Name())
			}
			for _, inst := range router.Inactive() {
				overlay.Parked = append(overlay.Parked, inst.Name())
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(router.States(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringArray("via", nil, "State to transition to before exporting, as name[:key=value,...] (repeatable)")
}

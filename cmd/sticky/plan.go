package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/sticky/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <state>",
	Short: "Explain the transition plan to a state",
	Long: `Computes, without applying it, the plan for moving to <state>.

The router starts at the root. Use --via to walk through states first, so that
sticky states are parked before the plan is computed:

  sticky plan inbox.thread --param thread_id=1 --via inbox.thread:thread_id=1 --via settings`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		router, _, err := newRouter(cmd)
		if err != nil {
			return err
		}

		via, _ := cmd.Flags().GetStringArray("via")
		for _, step := range via {
			name, params, err := parseStep(step)
			if err != nil {
				return err
			}
			if plan, err := router.TransitionTo(cmd.Context(), name, params); plan == nil {
				return fmt.Errorf("cannot reach %q: %w", name, err)
			}
		}

		to := args[0]
		kv, _ := cmd.Flags().GetStringToString("param")
		plan, err := router.Plan(to, toParams(kv))
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"from":     router.Current(),
				"to":       to,
				"keep":     plan.Keep,
				"enter":    plan.Enter,
				"exit":     plan.Exit,
				"inactive": plan.InactiveNames(),
				"sticky":   plan.Sticky,
			})
		}

		fromPath, err := router.PathNames(router.Current())
		if err != nil {
			return err
		}
		toPath, err := router.PathNames(to)
		if err != nil {
			return err
		}
		md := tui.PlanMarkdown(fromPath, toPath, plan)

		out := md
		if cmd.OutOrStdout() == os.Stdout {
			if out, err = tui.RenderFor(os.Stdout, md); err != nil {
				out = md
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringToString("param", nil, "Params of the target state (key=value)")
	planCmd.Flags().StringArray("via", nil, "State to transition to before planning, as name[:key=value,...] (repeatable)")
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
}

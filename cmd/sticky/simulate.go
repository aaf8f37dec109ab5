package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/pkg/adapters/file"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <script>",
	Short: "Run a scripted sequence of transitions and print the lifecycle log",
	Long: `Loads a YAML/JSON script of transitions and applies them in order, printing
every state entered, parked, resumed or discarded.

  steps:
    - to: inbox.thread
      params: {thread_id: 1}
    - to: settings

With --session the router resumes from the stored session and the final position
is persisted back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := file.LoadScript(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		router, logger, err := newRouter(cmd, sticky.WithLifecycleHooks(lifecycleLog(out)))
		if err != nil {
			return err
		}

		sessionID, _ := cmd.Flags().GetString("session")
		transition := router.TransitionTo
		if sessionID != "" {
			sessions, closeStore, err := openSessions(cmd, logger)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := sessions.Attach(cmd.Context(), sessionID, router); err != nil {
				return err
			}
			fmt.Fprintf(out, "session %s at %s\n", sessionID, displayName(router.Current()))
			transition = func(ctx context.Context, name string, params domain.Params) (*domain.TransitionPlan, error) {
				return sessions.Transition(ctx, sessionID, router, name, params)
			}
		}

		for i, step := range script.Steps {
			fmt.Fprintf(out, "\n[%d] %s -> %s %v\n", i+1, displayName(router.Current()), displayName(step.To), step.Params)
			plan, err := transition(cmd.Context(), step.To, step.Params)
			if plan == nil {
				return fmt.Errorf("step %d aborted: %w", i+1, err)
			}
			if err != nil {
				fmt.Fprintf(out, "  ! %v\n", err)
			}
			fmt.Fprintf(out, "  plan: %s\n", plan)
		}

		fmt.Fprintf(out, "\ncurrent: %s\n", displayName(router.Current()))
		for _, inst := range router.Inactive() {
			fmt.Fprintf(out, "parked:  %s %v\n", inst.Name(), map[string]any(inst.Params))
		}
		return nil
	},
}

// lifecycleLog prints one line per state lifecycle event.
func lifecycleLog(w io.Writer) domain.LifecycleHooks {
	line := func(verb string) func(context.Context, *domain.StateEvent) {
		return func(_ context.Context, ev *domain.StateEvent) {
			fmt.Fprintf(w, "  %-8s %s %v\n", verb, ev.State, map[string]any(ev.Params))
		}
	}
	return domain.LifecycleHooks{
		OnEnter:   line("enter"),
		OnPark:    line("park"),
		OnResume:  line("resume"),
		OnDiscard: line("discard"),
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().String("session", "", "Resume from and persist to this session")
	addStoreFlags(simulateCmd.Flags())
}

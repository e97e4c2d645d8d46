// File: cmd/replay.go
package cmd

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/ghost/internal/config"
	"github.com/xkilldash9x/ghost/internal/planner"
)

// remainder is implemented by planners that replay a finite script.
type remainder interface {
	Remaining() int
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		instruction string
		dump        bool
	)
	replayCmd := &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Execute recorded planner responses without contacting a model",
		Long: `Replay feeds each recorded planner response through the planning bridge in
turn, waiting for the resulting actions to finish before the next one.

The script is a JSON array of responses, an object with a "responses" array, or
a single response. Each response has optional "text" and a list of "calls",
each with a tool "name" and its "args".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.cfg.SetPlannerProvider(config.ProviderScript)
			a.cfg.SetPlannerScriptPath(args[0])

			s, err := a.startSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			script, ok := s.c.Planner.(remainder)
			if !ok {
				return fmt.Errorf("planner %T cannot replay", s.c.Planner)
			}
			for step := 1; script.Remaining() > 0; step++ {
				if err := s.submit(ctx, fmt.Sprintf("%s (%d)", instruction, step)); err != nil {
					return err
				}
				if err := s.waitIdle(ctx); err != nil {
					return err
				}
			}

			if !dump {
				s.summary()
				return nil
			}
			listing := planner.Describe(s.c.Canvas.Objects(), s.c.Store.Overlays())
			data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(listing, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode scene: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	replayCmd.Flags().StringVar(&instruction, "instruction", "Replay recorded response", "instruction text recorded for each step")
	replayCmd.Flags().BoolVar(&dump, "dump", false, "print the final scene listing as JSON")
	return replayCmd
}

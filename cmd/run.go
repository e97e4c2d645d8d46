// File: cmd/run.go
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/ghost/internal/planner"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		speak     bool
		reference string
	)
	runCmd := &cobra.Command{
		Use:   "run [instruction...]",
		Short: "Give the operator instructions, from arguments or an interactive prompt",
		Long: `Run starts the engine and plans each instruction against the current canvas.

With arguments, the joined arguments are submitted once and the command exits
when every resulting action has finished. Without arguments, instructions are
read line by line from stdin. At the prompt, "abort" drops all pending work,
"upload <path>" attaches a reference image to the next instruction and
"exit" quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if speak {
				a.cfg.SetSpeechEnabled(true)
			}

			s, err := a.startSession(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			if reference != "" {
				img, err := loadReference(reference)
				if err != nil {
					return err
				}
				s.c.Store.SetLastUploadedImage(img)
			}

			if len(args) > 0 {
				if err := s.submit(ctx, strings.Join(args, " ")); err != nil {
					return err
				}
			} else if err := a.prompt(cmd, s); err != nil {
				return err
			}

			if err := s.waitIdle(ctx); err != nil {
				return err
			}
			s.summary()
			return nil
		},
	}
	runCmd.Flags().BoolVar(&speak, "speak", false, "speak replies aloud using the configured speech command")
	runCmd.Flags().StringVar(&reference, "reference", "", "reference image attached to the first instruction")
	return runCmd
}

// prompt reads instructions until EOF or "exit".
func (a *app) prompt(cmd *cobra.Command, s *session) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == "abort":
			s.c.Store.Abort()
			fmt.Fprintln(out, "aborted")
		case strings.HasPrefix(line, "upload "):
			img, err := loadReference(strings.TrimSpace(strings.TrimPrefix(line, "upload ")))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			s.c.Store.SetLastUploadedImage(img)
			fmt.Fprintf(out, "reference attached (%s, %d bytes)\n", img.MIMEType, len(img.Data))
		default:
			err := s.submit(ctx, line)
			if errors.Is(err, planner.ErrBusy) {
				fmt.Fprintln(out, "still thinking, try again shortly")
				continue
			}
			if err != nil {
				return err
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

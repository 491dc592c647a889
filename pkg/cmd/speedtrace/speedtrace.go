package speedtrace

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/render"
	"github.com/mpapenbr/track-dominance/pkg/service"
)

var (
	year        int
	round       int
	event       string
	session     string
	laps        []int
	outDir      string
	concurrency int
)

func NewSpeedTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speedtrace",
		Short: "renders speed over distance of every driver per lap",
		Long: `Renders one chart per lap showing the speed of every driver over the lap
distance. Teammates share the team color, the second driver of a team is dashed.
Missing selections are asked for interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeedTrace(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	cmd.Flags().IntVar(&round, "round", 0, "round number of the meeting")
	cmd.Flags().StringVar(&event, "event", "", "part of the event name, location or country")
	cmd.Flags().StringVar(&session, "session", "", "session code (asked for if empty)")
	cmd.Flags().IntSliceVar(&laps, "laps", nil, "restrict to these lap numbers")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for the generated file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of laps fetched in parallel")
	return cmd
}

func runSpeedTrace(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	p := cmdutil.NewPrompter(cmd.InOrStdin(), out)
	meeting, sess, err := cmdutil.ResolveSession(ctx, env.Source, p, year, round, event, session)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loading %s %s...\n", meeting.Name, sess.Name)

	svc := service.NewSpeedTraceService(env.Source,
		service.WithLapNumbers(laps...),
		service.WithConcurrency(concurrency))
	trace, err := svc.Compute(ctx, sess.Key)
	if err != nil {
		return err
	}
	skipped := make([]string, 0, len(trace.Skipped))
	for k := range trace.Skipped {
		skipped = append(skipped, k)
	}
	slices.Sort(skipped)
	for _, k := range skipped {
		fmt.Fprintf(out, "Skipping %s: %s\n", k, trace.Skipped[k])
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	file := filepath.Join(outDir, render.SpeedTraceFilename(trace))
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := render.SpeedTraceHTML(f, trace); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Speed traces for %d laps saved to %s\n", len(trace.Laps), file)
	return nil
}

package fetch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/export"
	"github.com/mpapenbr/track-dominance/pkg/model"
)

var (
	year     int
	round    int
	event    string
	sessions string
)

func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "loads sessions into the cache and reports their fastest lap",
		Long: `Loads the lap data of the selected sessions into the response cache.
Sessions are given as comma separated codes (FP1,FP2,FP3,Q,SS,S,R) or ALL.
Without --round or --event the meeting is chosen interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchSessions(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	cmd.Flags().IntVar(&round, "round", 0, "round number of the meeting")
	cmd.Flags().StringVar(&event, "event", "", "part of the event name, location or country")
	cmd.Flags().StringVar(&sessions, "sessions", "",
		"session codes to load, e.g. 'Q,R' or 'ALL' (asked for if empty)")
	return cmd
}

//nolint:funlen // by design
func fetchSessions(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	p := cmdutil.NewPrompter(cmd.InOrStdin(), out)
	meeting, err := cmdutil.ResolveMeeting(ctx, env.Source, p, year, round, event)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSelected: %s\n", meeting.Name)

	input := sessions
	if input == "" {
		fmt.Fprintf(out, "\n--- Available Sessions for %s ---\n", meeting.Name)
		for _, c := range cmdutil.SessionCodes {
			fmt.Fprintf(out, "[%s] : %s\n", c.Code, c.Title)
		}
		fmt.Fprintln(out, "\nTip: Enter 'ALL' for everything, or separate by comma (e.g. 'Q, R')")
		if input, err = p.Ask("Enter Session Code(s): "); err != nil {
			return err
		}
	}
	codes, invalid := cmdutil.ParseSessionCodes(input)
	for _, code := range invalid {
		fmt.Fprintf(out, "Warning: '%s' is not a valid code. Ignoring.\n", code)
	}
	if len(codes) == 0 {
		return cmdutil.ErrNoSelection
	}
	fmt.Fprintf(out, "\nQueueing download for: %s\n",
		strings.Join(lo.Map(codes, func(c cmdutil.SessionCode, _ int) string { return c.Code }), ", "))

	available, err := env.Source.Sessions(ctx, meeting.Key)
	if err != nil {
		return err
	}
	for _, c := range codes {
		fmt.Fprintf(out, "\n--- Processing %s (%s) ---\n", c.Title, c.Code)
		sess, err := cmdutil.FindSession(available, c.Code)
		if err != nil {
			// e.g. FP3 on a sprint weekend
			fmt.Fprintf(out, "Could not load %s: %v\n", c.Code, err)
			continue
		}
		if err := fetchSession(ctx, env, out, sess); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn("Could not load session", log.Int("session", sess.Key), log.ErrorField(err))
			fmt.Fprintf(out, "Could not load %s: %v\n", c.Code, err)
		}
	}
	return nil
}

func fetchSession(ctx context.Context, env *cmdutil.Env, out io.Writer, sess *model.Session) error {
	laps, err := env.Source.Laps(ctx, sess.Key)
	if err != nil {
		return err
	}
	if _, err := env.Source.Drivers(ctx, sess.Key); err != nil {
		return err
	}
	fmt.Fprintf(out, "SUCCESS: %s loaded.\n", sess.Name)
	timed := slices.DeleteFunc(slices.Clone(laps), func(l model.Lap) bool {
		return l.LapTime <= 0
	})
	if len(timed) == 0 {
		fmt.Fprintln(out, "Session loaded but contains no lap data yet")
		return nil
	}
	fastest := slices.MinFunc(timed, func(a, b model.Lap) int {
		return cmp.Or(cmp.Compare(a.LapTime, b.LapTime), cmp.Compare(a.Sequence, b.Sequence))
	})
	fmt.Fprintf(out, "   Fastest Lap: %s by %s\n", export.FormatLapTime(&fastest), fastest.Driver)
	return nil
}

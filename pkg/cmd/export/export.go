package export

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/export"
	"github.com/mpapenbr/track-dominance/pkg/render"
)

var (
	year    int
	round   int
	event   string
	session string
	outFile string
)

func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "exports session data",
	}
	cmd.AddCommand(newLapsCmd())
	return cmd
}

func newLapsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "laps",
		Short: "writes all laps of a session as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportLaps(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	cmd.Flags().IntVar(&round, "round", 0, "round number of the meeting")
	cmd.Flags().StringVar(&event, "event", "", "part of the event name, location or country")
	cmd.Flags().StringVar(&session, "session", "Q", "session code (FP1,FP2,FP3,Q,SS,S,R)")
	cmd.Flags().StringVar(&outFile, "out", "",
		"output file (default <Event>_<Session>_Laps.csv, '-' for stdout)")
	return cmd
}

func exportLaps(cmd *cobra.Command) error {
	ctx := cmd.Context()
	env, err := cmdutil.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	p := cmdutil.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	meeting, sess, err := cmdutil.ResolveSession(ctx, env.Source, p, year, round, event, session)
	if err != nil {
		return err
	}
	laps, err := env.Source.Laps(ctx, sess.Key)
	if err != nil {
		return err
	}

	if outFile == "-" {
		return export.LapsCSV(cmd.OutOrStdout(), laps)
	}
	file := outFile
	if file == "" {
		file = render.LapsFilename(meeting, sess)
	}
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := export.LapsCSV(f, laps); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d laps written to %s\n", len(laps), file)
	return nil
}

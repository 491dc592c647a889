package dominance

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/pkg/dominance"
	"github.com/mpapenbr/track-dominance/pkg/export"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/render"
	runrepos "github.com/mpapenbr/track-dominance/pkg/repository/dominance"
	"github.com/mpapenbr/track-dominance/pkg/service"
)

var (
	appConfig config.Config // holds processed config values
	year      int
	round     int
	event     string
	session   string
)

func NewDominanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dominance",
		Short: "renders the track dominance map of a session",
		Long: `Compares the fastest laps of the two fastest drivers of a session and
renders the track colored by the driver who was faster in each section.
Without --round or --event the meeting is chosen interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDominance(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	cmd.Flags().IntVar(&round, "round", 0, "round number of the meeting")
	cmd.Flags().StringVar(&event, "event", "", "part of the event name, location or country")
	cmd.Flags().StringVar(&session, "session", "Q", "session code (FP1,FP2,FP3,Q,SS,S,R)")
	cmd.Flags().Float64Var(&appConfig.BinWidth, "bin", 10, "bin width in meters")
	cmd.Flags().Float64Var(&appConfig.QuickLapThreshold, "threshold",
		dominance.DefaultQuickLapThreshold,
		"only laps within this factor of the fastest lap are compared (0 disables)")
	cmd.Flags().StringVar(&appConfig.OutputDir, "out", ".", "directory for generated files")
	cmd.Flags().BoolVar(&appConfig.PNG, "png", false, "also render a PNG image")
	cmd.Flags().BoolVar(&appConfig.Store, "store", false, "store the run in the database")
	return cmd
}

//nolint:funlen // sequence of steps
func runDominance(cmd *cobra.Command) error {
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
	fmt.Fprintf(out, "Loading %s %s (%s)...\n", meeting.Name, sess.Name, meeting.Location)

	svc := service.NewDominanceService(env.Source,
		service.WithQuickLapThreshold(appConfig.QuickLapThreshold))
	res, err := svc.Compute(ctx, sess.Key, appConfig.BinWidth)
	if err != nil {
		if errors.Is(err, dominance.ErrInsufficientData) {
			fmt.Fprintln(out, "Not enough drivers with valid laps in this session.")
		}
		return err
	}
	printSummary(out, res)

	if err := os.MkdirAll(appConfig.OutputDir, 0o755); err != nil {
		return err
	}
	htmlFile := filepath.Join(appConfig.OutputDir, render.DominanceFilename(res, "html"))
	if err := writeHTML(htmlFile, res); err != nil {
		return err
	}
	fmt.Fprintf(out, "Map saved to %s\n", htmlFile)

	if appConfig.PNG {
		pngFile := filepath.Join(appConfig.OutputDir, render.DominanceFilename(res, "png"))
		if err := render.SaveDominancePNG(pngFile, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "Image saved to %s\n", pngFile)
	}

	if appConfig.Store {
		pool := cmdutil.InitDB()
		defer pool.Close()
		run, err := runrepos.Create(ctx, pool, model.NewDominanceRun(sess.Key, res))
		if err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		log.Info("Run stored", log.String("id", run.ID.String()))
		fmt.Fprintf(out, "Run stored with id %s\n", run.ID)
	}
	return nil
}

func printSummary(out io.Writer, res *model.Result) {
	fmt.Fprintf(out, "%s\n", render.DominanceTitle(res))
	for _, l := range []model.Lap{res.Reference, res.Secondary} {
		fmt.Fprintf(out, "  %-3s lap %2d  %s\n", l.Driver, l.LapNumber, export.FormatLapTime(&l))
	}
	s := res.Summary
	fmt.Fprintf(out, "  %d segments: %s %.0f%%, %s %.0f%% (%d bins without data)\n",
		s.Segments,
		s.Reference.Driver, s.Reference.Share*100,
		s.Secondary.Driver, s.Secondary.Share*100,
		s.Skipped)
}

func writeHTML(file string, res *model.Result) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := render.DominanceHTML(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

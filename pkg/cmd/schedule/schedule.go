package schedule

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
)

var year int

func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "lists the meetings of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listMeetings(cmd)
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "season year")
	return cmd
}

func listMeetings(cmd *cobra.Command) error {
	env, err := cmdutil.NewEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	meetings, err := env.Source.Meetings(cmd.Context(), year)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "--- %d Formula 1 Season ---\n", year)
	cmdutil.PrintMeetings(out, meetings)
	return nil
}

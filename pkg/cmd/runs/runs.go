package runs

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/track-dominance/pkg/cmd/cmdutil"
	"github.com/mpapenbr/track-dominance/pkg/export"
	runrepos "github.com/mpapenbr/track-dominance/pkg/repository/dominance"
)

var sessionKey int

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "manages stored dominance runs",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "lists the stored runs of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(cmd)
		},
	}
	list.Flags().IntVar(&sessionKey, "session", 0, "OpenF1 session key")
	_ = list.MarkFlagRequired("session")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "prints a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(cmd, args[0])
		},
	}
	del := &cobra.Command{
		Use:   "delete ID",
		Short: "deletes a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRun(cmd, args[0])
		},
	}
	cmd.AddCommand(list, show, del)
	return cmd
}

func listRuns(cmd *cobra.Command) error {
	pool := cmdutil.InitDB()
	defer pool.Close()
	runs, err := runrepos.LoadBySession(cmd.Context(), pool, sessionKey)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tEVENT\tSESSION\tREFERENCE\tSECONDARY\tBIN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d %s\t%s\t%s %s\t%s %s\t%.1f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Year, r.EventName, r.SessionName,
			r.Reference.Driver, export.FormatLapTime(&r.Reference),
			r.Secondary.Driver, export.FormatLapTime(&r.Secondary),
			r.BinWidth)
	}
	return tw.Flush()
}

func showRun(cmd *cobra.Command, arg string) error {
	id, err := uuid.FromString(arg)
	if err != nil {
		return err
	}
	pool := cmdutil.InitDB()
	defer pool.Close()
	run, err := runrepos.LoadByID(cmd.Context(), pool, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}

func deleteRun(cmd *cobra.Command, arg string) error {
	id, err := uuid.FromString(arg)
	if err != nil {
		return err
	}
	pool := cmdutil.InitDB()
	defer pool.Close()
	n, err := runrepos.DeleteByID(cmd.Context(), pool, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d run(s) deleted\n", n)
	return nil
}

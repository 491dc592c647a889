package cmdutil

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
)

var ErrNoSelection = errors.New("no selection")

// Prompter asks the user on the terminal
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askNumber repeats the question until a number in [min,max] is entered
func (p *Prompter) askNumber(question string, minVal, maxVal int) (int, error) {
	for {
		answer, err := p.Ask(question)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= minVal && n <= maxVal {
			return n, nil
		}
		fmt.Fprintln(p.out, "Invalid choice. Please try again.")
	}
}

// ChooseMeeting lists the meetings and lets the user pick one by round number
func (p *Prompter) ChooseMeeting(meetings []model.Meeting) (*model.Meeting, error) {
	if len(meetings) == 0 {
		return nil, ErrNoSelection
	}
	PrintMeetings(p.out, meetings)
	last := meetings[len(meetings)-1].Round
	for {
		round, err := p.askNumber("Select race number: ", 1, last)
		if err != nil {
			return nil, err
		}
		for i := range meetings {
			if meetings[i].Round == round {
				return &meetings[i], nil
			}
		}
		fmt.Fprintln(p.out, "Invalid choice. Please try again.")
	}
}

// ChooseSession lists the sessions of a meeting and lets the user pick one
func (p *Prompter) ChooseSession(sessions []model.Session) (*model.Session, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSelection
	}
	fmt.Fprintln(p.out, "Available sessions:")
	for i, s := range sessions {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, s.Name)
	}
	n, err := p.askNumber("Select session number: ", 1, len(sessions))
	if err != nil {
		return nil, err
	}
	return &sessions[n-1], nil
}

func PrintMeetings(w io.Writer, meetings []model.Meeting) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUND\tEVENT\tLOCATION\tDATE")
	for i := range meetings {
		m := &meetings[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Round, m.Name, m.Location,
			m.DateStart.Format("2006-01-02"))
	}
	tw.Flush()
}

type (
	MeetingFinder interface {
		Meetings(ctx context.Context, year int) ([]model.Meeting, error)
		FindMeeting(ctx context.Context, year, round int, name string) (*model.Meeting, error)
	}
	SessionFinder interface {
		MeetingFinder
		Sessions(ctx context.Context, meetingKey int) ([]model.Session, error)
	}
)

// ResolveMeeting finds the meeting by round or event name. If neither is given
// the user is asked to choose one.
//
//nolint:whitespace // editor/linter issue
func ResolveMeeting(
	ctx context.Context, src MeetingFinder, p *Prompter, year, round int, event string,
) (*model.Meeting, error) {
	if round > 0 || event != "" {
		return src.FindMeeting(ctx, year, round, event)
	}
	meetings, err := src.Meetings(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(meetings) == 0 {
		return nil, fmt.Errorf("season %d: %w", year, openf1.ErrNotFound)
	}
	return p.ChooseMeeting(meetings)
}

// ResolveSession finds meeting and session. Missing selections are asked for.
//
//nolint:whitespace // editor/linter issue
func ResolveSession(
	ctx context.Context,
	src SessionFinder,
	p *Prompter,
	year, round int,
	event, code string,
) (*model.Meeting, *model.Session, error) {
	meeting, err := ResolveMeeting(ctx, src, p, year, round, event)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := src.Sessions(ctx, meeting.Key)
	if err != nil {
		return nil, nil, err
	}
	var sess *model.Session
	if code == "" {
		sess, err = p.ChooseSession(sessions)
	} else {
		sess, err = FindSession(sessions, code)
	}
	if err != nil {
		return nil, nil, err
	}
	return meeting, sess, nil
}

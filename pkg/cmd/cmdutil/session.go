package cmdutil

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
)

var ErrUnknownSessionCode = errors.New("unknown session code")

type SessionCode struct {
	Code  string
	Title string
	// names used by OpenF1 for this session, newer names first
	names []string
}

var SessionCodes = []SessionCode{
	{"FP1", "Free Practice 1", []string{"Practice 1"}},
	{"FP2", "Free Practice 2", []string{"Practice 2"}},
	{"FP3", "Free Practice 3", []string{"Practice 3"}},
	{"Q", "Qualifying", []string{"Qualifying"}},
	{"SS", "Sprint Qualifying (Shootout)", []string{"Sprint Qualifying", "Sprint Shootout"}},
	{"S", "Sprint", []string{"Sprint"}},
	{"R", "Race", []string{"Race"}},
}

func LookupSessionCode(code string) (SessionCode, bool) {
	return lo.Find(SessionCodes, func(c SessionCode) bool {
		return strings.EqualFold(c.Code, strings.TrimSpace(code))
	})
}

// ParseSessionCodes parses a comma separated list of session codes.
// "ALL" selects every code. Unknown codes are returned separately.
func ParseSessionCodes(input string) (codes []SessionCode, invalid []string) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "ALL") {
		return slices.Clone(SessionCodes), nil
	}
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if c, ok := LookupSessionCode(part); ok {
			codes = append(codes, c)
		} else {
			invalid = append(invalid, part)
		}
	}
	return lo.UniqBy(codes, func(c SessionCode) string { return c.Code }), invalid
}

// FindSession returns the session matching code. Besides the session codes the
// OpenF1 session name itself is accepted.
func FindSession(sessions []model.Session, code string) (*model.Session, error) {
	c, known := LookupSessionCode(code)
	names := []string{strings.TrimSpace(code)}
	if known {
		names = c.names
	}
	for _, name := range names {
		if s, ok := lo.Find(sessions, func(s model.Session) bool {
			return strings.EqualFold(s.Name, name)
		}); ok {
			return &s, nil
		}
	}
	if !known {
		return nil, fmt.Errorf("session %q: %w", code, ErrUnknownSessionCode)
	}
	return nil, fmt.Errorf("session %q: %w", code, openf1.ErrNotFound)
}

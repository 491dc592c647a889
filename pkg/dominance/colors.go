package dominance

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

const (
	DefaultReferenceColor = "green"
	DefaultSecondaryColor = "red"
	ContrastColor         = "#FFFFFF"
	// used only when the reference driver itself is drawn in ContrastColor
	AlternateContrastColor = "#FF8000"
)

var ErrNoColor = errors.New("no color found")

// ColorLookup returns the natural (team based) color of a driver.
type ColorLookup func(driver string) (string, error)

type ColorStatus int

const (
	ColorFromLookup ColorStatus = iota
	ColorDefault
	ColorContrastOverride
)

func (s ColorStatus) String() string {
	switch s {
	case ColorFromLookup:
		return "lookup"
	case ColorDefault:
		return "default"
	case ColorContrastOverride:
		return "contrast"
	default:
		return "unknown"
	}
}

type ColorOutcome struct {
	Driver string
	Status ColorStatus
	Err    error // set if the lookup failed
}

type ColorResolution struct {
	Reference model.DriverColor
	Secondary model.DriverColor
	Outcomes  []ColorOutcome
}

// ResolveColors assigns distinct display colors to both drivers.
// If a lookup fails both drivers get the default pair. If both colors are equal
// (teammates) the secondary driver is drawn in ContrastColor.
func ResolveColors(ref, sec string, lookup ColorLookup) ColorResolution {
	refColor, refErr := lookupColor(lookup, ref)
	secColor, secErr := lookupColor(lookup, sec)

	ret := ColorResolution{
		Reference: model.DriverColor{Driver: ref, Color: refColor},
		Secondary: model.DriverColor{Driver: sec, Color: secColor},
		Outcomes: []ColorOutcome{
			{Driver: ref, Status: ColorFromLookup, Err: refErr},
			{Driver: sec, Status: ColorFromLookup, Err: secErr},
		},
	}
	if refErr != nil || secErr != nil {
		ret.Reference.Color = DefaultReferenceColor
		ret.Secondary.Color = DefaultSecondaryColor
		ret.Outcomes[0].Status = ColorDefault
		ret.Outcomes[1].Status = ColorDefault
	}

	if SameColor(ret.Reference.Color, ret.Secondary.Color) {
		ret.Secondary.Color = ContrastColor
		if SameColor(ret.Reference.Color, ContrastColor) {
			ret.Secondary.Color = AlternateContrastColor
		}
		ret.Outcomes[1].Status = ColorContrastOverride
	}
	return ret
}

func lookupColor(lookup ColorLookup, driver string) (string, error) {
	if lookup == nil {
		return "", ErrNoColor
	}
	c, err := lookup(driver)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(c) == "" {
		return "", ErrNoColor
	}
	return c, nil
}

// SameColor compares colors ignoring case and a leading '#'
func SameColor(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "#")
	}
	return norm(a) == norm(b)
}

// Map returns driver -> color
func (r ColorResolution) Map() map[string]string {
	return map[string]string{
		r.Reference.Driver: r.Reference.Color,
		r.Secondary.Driver: r.Secondary.Color,
	}
}

// Legend returns the entries in reference, secondary order
func (r ColorResolution) Legend() []model.DriverColor {
	return []model.DriverColor{r.Reference, r.Secondary}
}

// Fallbacks returns the outcomes which did not use the natural color
func (r ColorResolution) Fallbacks() []ColorOutcome {
	return lo.Filter(r.Outcomes, func(o ColorOutcome, _ int) bool {
		return o.Status != ColorFromLookup
	})
}

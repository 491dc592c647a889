package dominance

type Kind int

const (
	KindInsufficientData Kind = iota + 1
	KindNoOverlappingData
	KindInvalidBinWidth
)

func (k Kind) String() string {
	switch k {
	case KindInsufficientData:
		return "InsufficientData"
	case KindNoOverlappingData:
		return "NoOverlappingData"
	case KindInvalidBinWidth:
		return "InvalidBinWidth"
	default:
		return "Unknown"
	}
}

// Error is returned for the expected "no data" outcomes of a run.
// Use errors.Is with the sentinel values below to check the kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInsufficientData = &Error{
		Kind: KindInsufficientData,
		Msg:  "need eligible laps from at least two drivers",
	}
	ErrNoOverlappingData = &Error{
		Kind: KindNoOverlappingData,
		Msg:  "telemetry of both drivers never overlaps in distance",
	}
	ErrInvalidBinWidth = &Error{
		Kind: KindInvalidBinWidth,
		Msg:  "bin width must be positive",
	}
)

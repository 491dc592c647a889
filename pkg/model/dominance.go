package model

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DominanceSegment is a polyline drawn in the color of the faster driver.
type DominanceSegment struct {
	Points       []Point `json:"points"`
	Color        string  `json:"color"`
	FasterDriver string  `json:"fasterDriver"`
}

type DriverColor struct {
	Driver string `json:"driver"`
	Color  string `json:"color"`
}

type DriverShare struct {
	Driver string  `json:"driver"`
	Bins   int     `json:"bins"`
	Share  float64 `json:"share"` // 0..1 of the emitted segments
}

type DominanceSummary struct {
	Segments  int         `json:"segments"`
	Reference DriverShare `json:"reference"`
	Secondary DriverShare `json:"secondary"`
	Skipped   int         `json:"skipped"` // bins without data from both drivers
}

// Result is the outcome of one dominance run
type Result struct {
	Meeting   *Meeting           `json:"meeting,omitempty"`
	Session   *Session           `json:"session,omitempty"`
	Reference Lap                `json:"reference"`
	Secondary Lap                `json:"secondary"`
	Legend    []DriverColor      `json:"legend"`
	BinWidth  float64            `json:"binWidth"`
	Segments  []DominanceSegment `json:"segments"`
	Summary   DominanceSummary   `json:"summary"`
}

// SpeedTraceLine is one driver's lap rendered as distance vs speed
type SpeedTraceLine struct {
	Driver  string            `json:"driver"`
	Color   string            `json:"color"`
	Dashed  bool              `json:"dashed"`
	Samples []TelemetrySample `json:"samples"`
}

type SpeedTraceLap struct {
	LapNumber int              `json:"lapNumber"`
	Lines     []SpeedTraceLine `json:"lines"`
}

type SpeedTrace struct {
	Meeting *Meeting          `json:"meeting,omitempty"`
	Session *Session          `json:"session,omitempty"`
	Laps    []SpeedTraceLap   `json:"laps"`
	Skipped map[string]string `json:"skipped,omitempty"` // "DRV lap N" -> reason
}

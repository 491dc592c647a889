package model

// TelemetrySample is one sample of a driver's lap, indexed by distance along the track.
type TelemetrySample struct {
	Distance float64 `json:"distance"` // meters since lap start
	Speed    float64 `json:"speed"`    // km/h
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// TelemetryTrace holds the samples of one lap ordered by non-decreasing distance.
type TelemetryTrace struct {
	Driver  string            `json:"driver"`
	Samples []TelemetrySample `json:"samples"`
}

func (t *TelemetryTrace) MaxDistance() float64 {
	ret := 0.0
	for i := range t.Samples {
		if t.Samples[i].Distance > ret {
			ret = t.Samples[i].Distance
		}
	}
	return ret
}

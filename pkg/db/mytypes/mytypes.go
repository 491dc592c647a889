package mytypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/mpapenbr/track-dominance/pkg/model"
)

// jsonb columns of the dominance_run table
type (
	LegendSlice  []model.DriverColor
	SegmentSlice []model.DominanceSegment
	Summary      model.DominanceSummary
)

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("value is not []byte")
	}
}

func (h *LegendSlice) Scan(value any) error {
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, &h)
}

func (h LegendSlice) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *SegmentSlice) Scan(value any) error {
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, &h)
}

func (h SegmentSlice) Value() (driver.Value, error) {
	return json.Marshal(h)
}

func (h *Summary) Scan(value any) error {
	bytes, err := toBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, &h)
}

func (h Summary) Value() (driver.Value, error) {
	return json.Marshal(h)
}

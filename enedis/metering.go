package enedis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
)

// MeteringKind is one of the four metering data products, in the snake_case form used by the API.
type MeteringKind string

const (
	ConsumptionLoadCurve MeteringKind = "consumption_load_curve"
	ConsumptionMaxPower  MeteringKind = "consumption_max_power"
	DailyConsumption     MeteringKind = "daily_consumption"
	DailyProduction      MeteringKind = "daily_production"
)

// MeteringWindow is how far back a metering fetch reaches.
const MeteringWindow = 10 * 24 * time.Hour

var storageTypes = map[MeteringKind]string{
	ConsumptionLoadCurve: "consumptionLoadCurve",
	ConsumptionMaxPower:  "consumptionMaxPower",
	DailyConsumption:     "dailyConsumption",
	DailyProduction:      "dailyProduction",
}

// MeteringKinds lists every supported kind
func MeteringKinds() []MeteringKind {
	return []MeteringKind{ConsumptionLoadCurve, ConsumptionMaxPower, DailyConsumption, DailyProduction}
}

// ParseMeteringKind validates a snake_case kind taken from a route or query.
func ParseMeteringKind(s string) (MeteringKind, error) {
	k := MeteringKind(s)
	if _, ok := storageTypes[k]; !ok {
		return "", fmt.Errorf("%w: unknown metering kind %q", apperrors.ErrInvalidRequest, s)
	}
	return k, nil
}

// StorageType is the camelCase name records of this kind are stored and queried under.
func (k MeteringKind) StorageType() string {
	return storageTypes[k]
}

func (k MeteringKind) String() string {
	return string(k)
}

// MeteringPayload is the body of /v3/metering_data/{kind}.
type MeteringPayload struct {
	UsagePoints []MeteringUsagePoint `json:"usage_point"`
}

type MeteringUsagePoint struct {
	MeterReading MeterReading `json:"meter_reading"`
}

type MeterReading struct {
	UsagePointID    string            `json:"usage_point_id"`
	Start           string            `json:"start"`
	End             string            `json:"end"`
	Quality         string            `json:"quality,omitempty"`
	ReadingType     *ReadingType      `json:"reading_type"`
	IntervalReading []IntervalReading `json:"interval_reading"`
}

type ReadingType struct {
	Unit            string `json:"unit"`
	MeasurementKind string `json:"measurement_kind,omitempty"`
	Aggregate       string `json:"aggregate,omitempty"`
	IntervalLength  Number `json:"interval_length"` // seconds between consecutive ranks
}

type IntervalReading struct {
	Value Number `json:"value"`
	Rank  Number `json:"rank"` // 1-based
	Date  string `json:"date,omitempty"`
}

// Validate rejects payloads the reshaping step cannot interpret.
func (p *MeteringPayload) Validate() error {
	if p.UsagePoints == nil {
		return apperrors.Malformed("metering payload has no usage_point list")
	}
	for i, up := range p.UsagePoints {
		mr := up.MeterReading
		if mr.UsagePointID == "" {
			return apperrors.Malformed("usage_point[%d] has no usage_point_id", i)
		}
		if _, err := ParseTimestamp(mr.Start); err != nil {
			return apperrors.Malformed("usage_point[%d] start: %v", i, err)
		}
		if _, err := ParseTimestamp(mr.End); err != nil {
			return apperrors.Malformed("usage_point[%d] end: %v", i, err)
		}
		if mr.ReadingType == nil {
			return apperrors.Malformed("usage_point[%d] has no reading_type", i)
		}
		for j, r := range mr.IntervalReading {
			if !r.Value.Valid {
				return apperrors.Malformed("usage_point[%d] interval_reading[%d] has no value", i, j)
			}
			if !r.Rank.Valid || r.Rank.Value < 1 {
				return apperrors.Malformed("usage_point[%d] interval_reading[%d] has an invalid rank", i, j)
			}
			if r.Rank.Value > 1 && !mr.ReadingType.IntervalLength.Valid {
				return apperrors.Malformed("usage_point[%d] has ranked readings but no interval_length", i)
			}
		}
	}
	return nil
}

// FetchMeteringData fetches kind for the usage point over [start, end].
func (c *Client) FetchMeteringData(ctx context.Context, kind MeteringKind, accessToken, usagePointID string, start, end time.Time) (*MeteringPayload, error) {
	if kind.StorageType() == "" {
		return nil, fmt.Errorf("%w: unknown metering kind %q", apperrors.ErrInvalidRequest, kind)
	}

	query := url.Values{}
	query.Set("start", formatISO(start))
	query.Set("end", formatISO(end))
	query.Set("usage_point_id", usagePointID)

	var payload MeteringPayload
	if err := c.getJSON(ctx, string(kind), "/v3/metering_data/"+string(kind), query, accessToken, &payload); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("[enedis FetchMeteringData] %s: %w", kind, err)
	}
	return &payload, nil
}

// FetchRecentMeteringData fetches kind over the rolling window ending now. Both bounds
// are read from the clock independently.
func (c *Client) FetchRecentMeteringData(ctx context.Context, kind MeteringKind, accessToken, usagePointID string) (*MeteringPayload, error) {
	start := c.nowTime().Add(-MeteringWindow)
	end := c.nowTime()
	return c.FetchMeteringData(ctx, kind, accessToken, usagePointID, start, end)
}

// formatISO matches JavaScript's Date.toISOString, the format the data hub was integrated with.
func formatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

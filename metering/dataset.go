package metering

import (
	"time"

	"github.com/jrsteele09/enedis-gateway/enedis"
)

// Dataset is what the metering endpoints return: one entry per usage point.
type Dataset []Entry

type Entry struct {
	Metadata  Metadata     `json:"metadata"`
	GraphData []GraphPoint `json:"graph_data"`
}

type Metadata struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Unit         string    `json:"unit"`
	UsagePointID string    `json:"usagePointId"`
}

type GraphPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// DatasetFromPayload reshapes a validated provider payload. Reading timestamps are
// start + interval_length * (rank - 1) seconds.
func DatasetFromPayload(p *enedis.MeteringPayload) (Dataset, error) {
	dataset := make(Dataset, 0, len(p.UsagePoints))
	for _, up := range p.UsagePoints {
		mr := up.MeterReading
		start, err := enedis.ParseTimestamp(mr.Start)
		if err != nil {
			return nil, err
		}
		end, err := enedis.ParseTimestamp(mr.End)
		if err != nil {
			return nil, err
		}

		var unit string
		var interval float64
		if mr.ReadingType != nil {
			unit = mr.ReadingType.Unit
			interval = mr.ReadingType.IntervalLength.Value
		}

		points := make([]GraphPoint, 0, len(mr.IntervalReading))
		for _, r := range mr.IntervalReading {
			offset := time.Duration(interval * (r.Rank.Value - 1) * float64(time.Second))
			points = append(points, GraphPoint{
				Timestamp: start.Add(offset),
				Value:     r.Value.Value,
			})
		}

		dataset = append(dataset, Entry{
			Metadata: Metadata{
				Start:        start,
				End:          end,
				Unit:         unit,
				UsagePointID: mr.UsagePointID,
			},
			GraphData: points,
		})
	}
	return dataset, nil
}

// DatasetFromRecords groups stored readings by usage point, in order of first appearance.
// Each group's window runs from its first to its last timestamp and takes the unit of its
// first row. records must be sorted oldest first.
func DatasetFromRecords(records []Record) Dataset {
	index := make(map[string]int)
	dataset := make(Dataset, 0)
	for _, rec := range records {
		i, ok := index[rec.UsagePointID]
		if !ok {
			i = len(dataset)
			index[rec.UsagePointID] = i
			dataset = append(dataset, Entry{
				Metadata: Metadata{
					Start:        rec.Timestamp,
					Unit:         rec.Unit,
					UsagePointID: rec.UsagePointID,
				},
				GraphData: make([]GraphPoint, 0),
			})
		}
		entry := &dataset[i]
		entry.Metadata.End = rec.Timestamp
		entry.GraphData = append(entry.GraphData, GraphPoint{Timestamp: rec.Timestamp, Value: rec.Value})
	}
	return dataset
}

// Records flattens the dataset into storable rows owned by userID.
func (d Dataset) Records(userID, recordType string) []Record {
	var records []Record
	for _, entry := range d {
		for _, point := range entry.GraphData {
			records = append(records, Record{
				UserID:       userID,
				Type:         recordType,
				Timestamp:    point.Timestamp,
				Value:        point.Value,
				Unit:         entry.Metadata.Unit,
				UsagePointID: entry.Metadata.UsagePointID,
			})
		}
	}
	return records
}

package interact

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/matzehuels/choropleth/pkg/aggregate"
	"github.com/matzehuels/choropleth/pkg/dataset"
)

// NoData is shown for regions and points without a measurement.
const NoData = "N/A"

// Labels is the default TextSource. It formats tooltips from dataset records.
//
// Region text shows the mean, which is also the value that picks the fill
// color. When several records feed a region the count and total are added,
// each labelled:
//
//	Maharashtra: 100 (avg of 3 points, total 300)
//
// Point text shows the raw record value and, when known, its region.
type Labels struct {
	regions map[string]aggregate.Summary
	points  map[string]dataset.Record
}

// NewLabels indexes records for tooltip lookup.
func NewLabels(records []dataset.Record) *Labels {
	l := &Labels{
		regions: make(map[string]aggregate.Summary),
		points:  aggregate.Points(records),
	}
	for _, s := range aggregate.Summarize(records) {
		l.regions[s.RegionID] = s
	}
	return l
}

// RegionText returns the tooltip text for a region.
func (l *Labels) RegionText(id string) string {
	s, ok := l.regions[id]
	if !ok {
		return fmt.Sprintf("%s: %s", id, NoData)
	}
	text := fmt.Sprintf("%s: %s", id, FormatValue(s.Mean))
	if s.Count > 1 {
		text += fmt.Sprintf(" (avg of %d points, total %s)", s.Count, FormatValue(s.Sum))
	}
	return text
}

// PointText returns the tooltip text for a point marker.
func (l *Labels) PointText(id string) string {
	r, ok := l.points[id]
	if !ok {
		return fmt.Sprintf("%s: %s", id, NoData)
	}
	text := fmt.Sprintf("%s: %s", id, FormatValue(r.Value))
	if r.RegionID != "" {
		text += fmt.Sprintf(" (%s)", r.RegionID)
	}
	return text
}

// PointRegion returns the region named by the point's record.
func (l *Labels) PointRegion(id string) (string, bool) {
	r, ok := l.points[id]
	if !ok || r.RegionID == "" {
		return "", false
	}
	return r.RegionID, true
}

// FormatValue formats a measurement with thousands separators and at most
// two decimals. Zero is a value and prints as "0".
func FormatValue(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

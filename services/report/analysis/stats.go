package analysis

import (
	"math"
	"sort"
	"time"
)

const maxOutliers = 5

// WindowStats summarizes one metric over a time window
type WindowStats struct {
	Count        int
	Min          float64
	MinTimestamp time.Time
	Max          float64
	MaxTimestamp time.Time
	Median       float64
	StdDev       float64
	Range        float64
}

// Outlier is a reading far outside the interquartile range
type Outlier struct {
	Value     float64
	Timestamp time.Time
}

func inWindow(readings []Reading, window time.Duration, end time.Time) []Reading {
	start := end.Add(-window)
	subset := make([]Reading, 0, len(readings))
	for _, r := range readings {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}

		subset = append(subset, r)
	}

	return subset
}

func valuesOf(readings []Reading, metric string) []float64 {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		values = append(values, r.Values[metric])
	}

	return values
}

// RollingAverage returns the mean of the metric over [end-window, end]. The boolean is false for an empty window.
func RollingAverage(readings []Reading, metric string, window time.Duration, end time.Time) (float64, bool) {
	values := valuesOf(inWindow(readings, window, end), metric)
	if len(values) == 0 {
		return 0, false
	}

	return mean(values), true
}

// ComputeWindowStats returns the min/max (with their first timestamps), median, count, sample standard deviation
// and range of the metric over [end-window, end]. The boolean is false for an empty window.
func ComputeWindowStats(readings []Reading, metric string, window time.Duration, end time.Time) (WindowStats, bool) {
	subset := inWindow(readings, window, end)
	if len(subset) == 0 {
		return WindowStats{}, false
	}

	stats := WindowStats{
		Count:        len(subset),
		Min:          subset[0].Values[metric],
		MinTimestamp: subset[0].Timestamp,
		Max:          subset[0].Values[metric],
		MaxTimestamp: subset[0].Timestamp,
	}
	for _, r := range subset[1:] {
		value := r.Values[metric]
		if value < stats.Min {
			stats.Min = value
			stats.MinTimestamp = r.Timestamp
		}
		if value > stats.Max {
			stats.Max = value
			stats.MaxTimestamp = r.Timestamp
		}
	}

	values := valuesOf(subset, metric)
	stats.Median = median(sortedCopy(values))
	stats.StdDev = sampleStdDev(values)
	stats.Range = stats.Max - stats.Min

	return stats, true
}

// Quartiles returns Q1, the median and Q3. For an odd count the median is left out of both halves.
func Quartiles(values []float64) (float64, float64, float64, bool) {
	if len(values) == 0 {
		return 0, 0, 0, false
	}

	sorted := sortedCopy(values)
	n := len(sorted)
	lower := sorted[:n/2]
	upper := sorted[n/2:]
	if n%2 == 1 {
		upper = sorted[n/2+1:]
	}

	q1 := sorted[0]
	if len(lower) > 0 {
		q1 = median(lower)
	}
	q3 := sorted[n-1]
	if len(upper) > 0 {
		q3 = median(upper)
	}

	return q1, median(sorted), q3, true
}

// DetectOutliers applies the 1.5 IQR rule over all readings and returns the 5 worst outliers, the farthest from
// the median first
func DetectOutliers(readings []Reading, metric string) []Outlier {
	q1, med, q3, ok := Quartiles(valuesOf(readings, metric))
	if !ok {
		return nil
	}

	iqr := q3 - q1
	lowerBound := q1 - 1.5*iqr
	upperBound := q3 + 1.5*iqr

	outliers := make([]Outlier, 0)
	for _, r := range readings {
		value := r.Values[metric]
		if value < lowerBound || value > upperBound {
			outliers = append(outliers, Outlier{Value: value, Timestamp: r.Timestamp})
		}
	}

	sort.SliceStable(outliers, func(i, j int) bool {
		return math.Abs(outliers[i].Value-med) > math.Abs(outliers[j].Value-med)
	})

	if len(outliers) > maxOutliers {
		outliers = outliers[:maxOutliers]
	}

	return outliers
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return sorted
}

// median expects sorted, non-empty values
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		sumSquares += (v - m) * (v - m)
	}

	return math.Sqrt(sumSquares / float64(len(values)-1))
}

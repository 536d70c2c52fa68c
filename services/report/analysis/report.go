package analysis

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	day               = 24 * time.Hour
	reportTimeLayout  = "2006-01-02 15:04:05"
	majorSeparatorLen = 50
)

// DefaultMetrics lists the columns reported when none are requested
var DefaultMetrics = []string{TemperatureColumn, "rhumCompensated", "tvocIndex", "rco2", "pm02Compensated"}

var displayNames = map[string]string{
	TemperatureColumn: "Temperature (°F)",
	"rhumCompensated": "Relative Humidity (%)",
	"tvocIndex":       "TVOC Index",
	"rco2":            "eCO2 (ppm)",
	"pm02Compensated": "PM2.5 (µg/m³)",
}

// MetricReport holds the computed figures of one metric. Nil pointers mark values that could not be computed.
type MetricReport struct {
	Metric           string
	DisplayName      string
	Current          float64
	CurrentTimestamp time.Time
	Rolling1d        *float64
	Rolling7d        *float64
	Window           *WindowStats
	TrendPercent     *float64
	DeviationPercent *float64
	Outliers         []Outlier
}

// Report is the full sensor report
type Report struct {
	File        string
	GeneratedAt time.Time
	Metrics     []MetricReport
}

// BuildReport computes the figures of every metric relative to the latest reading
func BuildReport(readings []Reading, metrics []string, file string, generatedAt time.Time) (Report, error) {
	if len(readings) == 0 {
		return Report{}, errors.New("no data found in CSV file")
	}

	current := readings[len(readings)-1]
	report := Report{
		File:        file,
		GeneratedAt: generatedAt,
		Metrics:     make([]MetricReport, 0, len(metrics)),
	}

	for _, metric := range metrics {
		mr := MetricReport{
			Metric:           metric,
			DisplayName:      displayName(metric),
			Current:          current.Values[metric],
			CurrentTimestamp: current.Timestamp,
			Outliers:         DetectOutliers(readings, metric),
		}

		if avg, ok := RollingAverage(readings, metric, day, current.Timestamp); ok {
			mr.Rolling1d = &avg
		}
		if avg, ok := RollingAverage(readings, metric, 7*day, current.Timestamp); ok {
			mr.Rolling7d = &avg
		}
		if stats, ok := ComputeWindowStats(readings, metric, 7*day, current.Timestamp); ok {
			mr.Window = &stats
		}

		if mr.Rolling7d != nil && mr.Rolling1d != nil && *mr.Rolling7d != 0 {
			trend := (*mr.Rolling1d - *mr.Rolling7d) / *mr.Rolling7d * 100
			deviation := (mr.Current - *mr.Rolling7d) / *mr.Rolling7d * 100
			mr.TrendPercent = &trend
			mr.DeviationPercent = &deviation
		}

		report.Metrics = append(report.Metrics, mr)
	}

	return report, nil
}

func displayName(metric string) string {
	name, found := displayNames[metric]
	if !found {
		return metric
	}

	return name
}

// Render writes the ASCII report
func Render(w io.Writer, report Report) error {
	major := strings.Repeat("=", majorSeparatorLen)
	minor := strings.Repeat("-", majorSeparatorLen)

	b := &strings.Builder{}
	line := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(b, format+"\n", args...)
	}

	line("%s", major)
	line("      Air Gradient Sensor Report")
	line("%s", major)
	line("File: %s", report.File)
	line("Report Generated on: %s", report.GeneratedAt.Format(reportTimeLayout))
	line("%s", major)
	line("")

	for _, mr := range report.Metrics {
		line("%s", minor)
		line("[ Metric: %s ]", mr.DisplayName)
		line("%s", minor)
		line(">> Current Reading:")
		line("   Value: %.2f at %s", mr.Current, mr.CurrentTimestamp.Format(reportTimeLayout))
		line("")
		line(">> Rolling Averages:")
		line("   1-day: %s", optional(mr.Rolling1d, "%.2f"))
		line("   7-day: %s", optional(mr.Rolling7d, "%.2f"))
		line("")
		line(">> Window Statistics (Last 7 Days):")
		renderWindow(line, mr.Window)
		line("")
		line(">> Trend Analysis:")
		line("   Trend (1-day vs 7-day): %s", optional(mr.TrendPercent, "%+.2f%%"))
		line("   Deviation from 7-day avg: %s", optional(mr.DeviationPercent, "%+.2f%%"))
		line("")
		line(">> Outlier Analysis:")
		line("   Top 5 Worst Outliers:")
		if len(mr.Outliers) == 0 {
			line("     None")
		}
		for idx, outlier := range mr.Outliers {
			line("     %d. %.2f at %s", idx+1, outlier.Value, outlier.Timestamp.Format(reportTimeLayout))
		}
		line("")
		line("%s", major)
		line("")
	}

	_, err := io.WriteString(w, b.String())

	return err
}

func renderWindow(line func(format string, args ...interface{}), stats *WindowStats) {
	if stats == nil {
		line("   Highest: N/A")
		line("   Lowest: N/A")
		line("   Median: N/A")
		line("   Count: 0")
		line("   Std Dev: N/A")
		line("   Range: N/A")
		return
	}

	line("   Highest: %.2f at %s", stats.Max, stats.MaxTimestamp.Format(reportTimeLayout))
	line("   Lowest: %.2f at %s", stats.Min, stats.MinTimestamp.Format(reportTimeLayout))
	line("   Median: %.2f", stats.Median)
	line("   Count: %d", stats.Count)
	line("   Std Dev: %.2f", stats.StdDev)
	line("   Range: %.2f", stats.Range)
}

func optional(value *float64, format string) string {
	if value == nil {
		return "N/A"
	}

	return fmt.Sprintf(format, *value)
}

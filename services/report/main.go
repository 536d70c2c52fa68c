package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/report/analysis"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"

var (
	helpTemplate = `NAME:
   {{.Name}} - {{.Usage}}
USAGE:
   {{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}
   {{if len .Authors}}
AUTHOR:
   {{range .Authors}}{{ . }}{{end}}
   {{end}}{{if .Commands}}
GLOBAL OPTIONS:
   {{range .VisibleFlags}}{{.}}
   {{end}}
VERSION:
   {{.Version}}
   {{end}}
`

	log = logger.GetOrCreate("main")

	// logLevel defines the logger level
	logLevel = cli.StringFlag{
		Name:  "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// csvFile is the CSV produced by the sensor logger
	csvFile = cli.StringFlag{
		Name:  "file",
		Usage: "This flag specifies the `path` of the CSV file to analyze.",
		Value: "./airgradient.csv",
	}
	// metrics is the comma separated list of analyzed columns
	metrics = cli.StringFlag{
		Name:  "metrics",
		Usage: "This flag specifies the comma separated `columns` to analyze.",
		Value: strings.Join(analysis.DefaultMetrics, ","),
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "Sensor report"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This tool prints rolling averages, window statistics and outliers of the logged sensor readings"
	app.Flags = []cli.Flag{
		logLevel,
		csvFile,
		metrics,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	path := ctx.GlobalString(csvFile.Name)
	selected := parseMetrics(ctx.GlobalString(metrics.Name))
	if len(selected) == 0 {
		return fmt.Errorf("no metrics selected")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	readings, err := analysis.ReadReadings(f, selected)
	if err != nil {
		return fmt.Errorf("%w while reading %s", err, path)
	}
	log.Debug("loaded readings", "file", path, "count", len(readings))

	report, err := analysis.BuildReport(readings, selected, path, time.Now())
	if err != nil {
		return err
	}

	return analysis.Render(os.Stdout, report)
}

func parseMetrics(value string) []string {
	selected := make([]string, 0)
	for _, metric := range strings.Split(value, ",") {
		metric = strings.TrimSpace(metric)
		if len(metric) > 0 {
			selected = append(selected, metric)
		}
	}

	return selected
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/commonGo"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/config"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/factory"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/urfave/cli"
)

const (
	defaultLogsPath      = "logs"
	logFilePrefix        = "csvlogger"
	logFileLifeSpanInSec = 86400 // 24h
	logFileLifeSpanInMB  = 1024  // 1GB
	envEndpointURL       = "SENSOR_ENDPOINT_URL"
	envOutputPath        = "SENSOR_OUTPUT_PATH"
)

// appVersion should be populated at build time using ldflags
// Usage examples:
// Linux/macOS:
//
//	go build -v -ldflags="-X main.appVersion=$(git describe --all | cut -c7-32)
var appVersion = "undefined"
var fileLogging commonGo.FileLoggingHandler

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
		Name: "log-level",
		Usage: "This flag specifies the logger `level(s)`. It can contain multiple comma-separated value. For example" +
			", if set to *:INFO the logs for all packages will have the INFO level. However, if set to *:INFO,engine:DEBUG" +
			" the logs for all packages will have the INFO level, excepting the engine package which will receive a DEBUG" +
			" log level.",
		Value: "*:" + logger.LogInfo.String(),
	}
	// logFile is used when the log output needs to be logged in a file
	logSaveFile = cli.BoolFlag{
		Name:  "log-save",
		Usage: "Boolean option for enabling log saving. If set, it will automatically save all the logs into a file.",
	}
	// workingDirectory defines a flag for the path for the working directory.
	workingDirectory = cli.StringFlag{
		Name:  "working-directory",
		Usage: "This flag specifies the `directory` where the logs will be stored.",
		Value: "",
	}
	// configFile defines the path to the TOML configuration
	configFile = cli.StringFlag{
		Name:  "config",
		Usage: "This flag specifies the `path` of the TOML configuration file.",
		Value: "./config.toml",
	}
	// envFile defines the optional .env file overriding the sensor endpoint and the output path
	envFile = cli.StringFlag{
		Name:  "env-file",
		Usage: "This flag specifies the `path` of an optional .env file that can set " + envEndpointURL + " and " + envOutputPath + ".",
		Value: "./.env",
	}
)

func main() {
	app := cli.NewApp()
	cli.AppHelpTemplate = helpTemplate
	app.Name = "Sensor CSV logger"
	app.Version = fmt.Sprintf("%s/%s/%s-%s", appVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	app.Usage = "This is the entry point for starting a service that periodically appends the sensor readings to a CSV file"
	app.Flags = []cli.Flag{
		logLevel,
		logSaveFile,
		workingDirectory,
		configFile,
		envFile,
	}
	app.Authors = []cli.Author{
		{
			Name:  "Iulian Pascalau",
			Email: "iulian.pascalau@gmail.com",
		},
	}

	app.Action = run

	defer func() {
		if fileLogging != nil {
			_ = fileLogging.Close()
		}
	}()

	err := app.Run(os.Args)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	saveLogFile := ctx.GlobalBool(logSaveFile.Name)
	workingDir := ctx.GlobalString(workingDirectory.Name)

	err := logger.SetLogLevel(ctx.GlobalString(logLevel.Name))
	if err != nil {
		return err
	}

	fileLogging, err = commonGo.AttachFileLogger(log, defaultLogsPath, logFilePrefix, saveLogFile, workingDir)
	if err != nil {
		return err
	}

	if !check.IfNil(fileLogging) {
		timeLogLifeSpan := time.Second * time.Duration(logFileLifeSpanInSec)
		sizeLogLifeSpanInMB := uint64(logFileLifeSpanInMB)
		err = fileLogging.ChangeFileLifeSpan(timeLogLifeSpan, sizeLogLifeSpanInMB)
		if err != nil {
			return err
		}
	}

	log.Info("Starting sensor CSV logger", "version", appVersion, "pid", os.Getpid())

	cfg, err := loadConfig(ctx.GlobalString(configFile.Name), ctx.GlobalString(envFile.Name))
	if err != nil {
		return err
	}

	handler, err := factory.NewComponentsHandler(*cfg)
	if err != nil {
		return err
	}

	err = handler.Bootstrap(context.Background())
	if err != nil {
		return fmt.Errorf("%w, remove or fix the output file before restarting", err)
	}

	handler.Start()

	log.Info("Sensor CSV logger started", "endpoint", cfg.EndpointURL, "output", cfg.OutputPath,
		"interval", time.Duration(cfg.IntervalInSeconds)*time.Second)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	return waitForShutdown(sigs, handler)
}

type runningHandler interface {
	FatalError() <-chan error
	Close()
}

// waitForShutdown blocks until a signal arrives or the engine stops on a fatal condition. Only the latter returns
// an error, which makes the process exit with a non-zero status.
func waitForShutdown(sigs <-chan os.Signal, handler runningHandler) error {
	select {
	case <-sigs:
		log.Info("Application closing, calling Close on all subcomponents...")
		handler.Close()
		return nil
	case err := <-handler.FatalError():
		log.Error("the logger stopped on an unrecoverable error", "error", err)
		handler.Close()
		return err
	}
}

func loadConfig(configPath string, envPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	overrides := map[string]string{
		envEndpointURL: cfg.EndpointURL,
		envOutputPath:  cfg.OutputPath,
	}
	err = commonGo.ReadEnvOverrides(envPath, overrides)
	if err != nil {
		return nil, err
	}

	cfg.EndpointURL = overrides[envEndpointURL]
	cfg.OutputPath = overrides[envOutputPath]

	return cfg, cfg.Validate()
}

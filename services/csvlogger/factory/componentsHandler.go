package factory

import (
	"context"
	"sync"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/commonGo"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/api"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/config"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/engine"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/fetcher"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/metrics"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/sampler"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/storage"
)

type componentsHandler struct {
	fetcher       engine.Fetcher
	storage       engine.Storage
	engine        Engine
	server        Server
	mutCancel     sync.Mutex
	cancel        func()
	loopDone      <-chan struct{}
	queryInterval time.Duration
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(cfg config.Config) (*componentsHandler, error) {
	cfg.ApplyDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	fetch, err := createFetcher(cfg)
	if err != nil {
		return nil, err
	}

	csvFile, err := storage.NewCSVFile(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	promMetrics, err := metrics.NewPromMetrics()
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewLoggerEngine(engine.ArgsLoggerEngine{
		Name:        cfg.Name,
		EndpointURL: cfg.EndpointURL,
		Fetcher:     fetch,
		Storage:     csvFile,
		Metrics:     promMetrics,
		TimeHandler: time.Now,
	})
	if err != nil {
		return nil, err
	}

	handler := &componentsHandler{
		fetcher:       fetch,
		storage:       csvFile,
		engine:        eng,
		queryInterval: time.Duration(cfg.IntervalInSeconds) * time.Second,
	}

	if len(cfg.StatusListenAddress) == 0 {
		return handler, nil
	}

	handler.server, err = api.NewServer(api.ArgsWebServer{
		ListenAddress:  cfg.StatusListenAddress,
		StatusProvider: eng,
		MetricsHandler: promMetrics.Handler(),
	})
	if err != nil {
		return nil, err
	}

	return handler, nil
}

func createFetcher(cfg config.Config) (engine.Fetcher, error) {
	httpFetcher := fetcher.NewHTTPFetcher(time.Duration(cfg.FetchTimeoutInSeconds) * time.Second)
	if cfg.SamplesPerInterval <= 1 {
		return httpFetcher, nil
	}

	return sampler.NewSamplingFetcher(sampler.ArgsSamplingFetcher{
		Fetcher:        httpFetcher,
		NumSamples:     cfg.SamplesPerInterval,
		SampleInterval: time.Duration(cfg.SampleIntervalInSeconds) * time.Second,
	})
}

// GetFetcher returns the fetcher component
func (ch *componentsHandler) GetFetcher() engine.Fetcher {
	return ch.fetcher
}

// GetStorage returns the storage component
func (ch *componentsHandler) GetStorage() engine.Storage {
	return ch.storage
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// GetServer returns the status server, nil if it is disabled
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Bootstrap inspects the output file. The returned error is fatal.
func (ch *componentsHandler) Bootstrap(ctx context.Context) error {
	return ch.engine.Bootstrap(ctx)
}

// FatalError returns the channel on which an unrecoverable engine condition is reported
func (ch *componentsHandler) FatalError() <-chan error {
	return ch.engine.FatalError()
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	if ch.server != nil {
		ch.server.Start()
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	ch.loopDone = commonGo.CronJobStarter(ctx, ch.engine.Process, ch.queryInterval)
}

// Close stops the poll loop, waiting for the in-flight cycle, and closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel == nil {
		return
	}

	ch.cancel()
	ch.cancel = nil
	<-ch.loopDone

	if ch.server != nil {
		_ = ch.server.Close()
	}
}

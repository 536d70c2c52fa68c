package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/common"
	"github.com/iulianpascalau/sensor-csv-logger/services/csvlogger/schema"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

// TimestampLayout is the ISO-8601 layout used for the timestamp column
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

var log = logger.GetOrCreate("engine")

// ArgsLoggerEngine is the DTO used to create a new logger engine
type ArgsLoggerEngine struct {
	Name        string
	EndpointURL string
	Fetcher     Fetcher
	Storage     Storage
	Metrics     MetricsHandler
	TimeHandler func() time.Time
}

// loggerEngine drives the poll state machine: it fetches one record per call, locks the schema on the first
// success and appends one row per successful fetch afterwards
type loggerEngine struct {
	name        string
	endpointURL string
	fetcher     Fetcher
	storage     Storage
	metrics     MetricsHandler
	timeHandler func() time.Time
	fatalChan   chan error

	mut           sync.RWMutex
	state         common.State
	schema        common.Schema
	rowsWritten   uint64
	fetchFailures uint64
	lastError     string
	lastRowAt     time.Time
	fatalErr      error
}

// NewLoggerEngine creates a new engine instance
func NewLoggerEngine(args ArgsLoggerEngine) (*loggerEngine, error) {
	if len(args.EndpointURL) == 0 {
		return nil, errors.New("empty endpoint URL")
	}
	if check.IfNil(args.Fetcher) {
		return nil, errors.New("nil fetcher")
	}
	if check.IfNil(args.Storage) {
		return nil, errors.New("nil storage")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("nil metrics handler")
	}
	if args.TimeHandler == nil {
		return nil, errors.New("nil time handler")
	}

	e := &loggerEngine{
		name:        args.Name,
		endpointURL: args.EndpointURL,
		fetcher:     args.Fetcher,
		storage:     args.Storage,
		metrics:     args.Metrics,
		timeHandler: args.TimeHandler,
		fatalChan:   make(chan error, 1),
		state:       common.Uninitialized,
	}
	e.metrics.SetState(common.Uninitialized)

	return e, nil
}

// Bootstrap inspects the output file. An existing file has its header validated and locked as the schema,
// without consuming a poll cycle. A missing file leaves the engine waiting for the first successful fetch.
// The returned error is fatal: the output file exists but can not be used.
func (e *loggerEngine) Bootstrap(_ context.Context) error {
	if e.getState() != common.Uninitialized {
		return errors.New("engine already bootstrapped")
	}

	exists, err := e.storage.Exists()
	if err != nil {
		return err
	}
	if !exists {
		log.Info("output file does not exist, it will be created on the first successful fetch",
			"name", e.name, "path", e.storage.Path())
		e.setState(common.Bootstrapping)

		return nil
	}

	return e.adoptExistingHeader()
}

func (e *loggerEngine) adoptExistingHeader() error {
	line, err := e.storage.ReadHeaderLine()
	if err != nil {
		return err
	}

	columns, err := schema.ReadSchema(line)
	if err != nil {
		return fmt.Errorf("output file %s: %w", e.storage.Path(), err)
	}

	e.mut.Lock()
	e.schema = columns
	e.mut.Unlock()
	e.setState(common.Steady)

	log.Info("using the existing output file", "name", e.name, "path", e.storage.Path(),
		"columns", strings.Join(columns, ","))

	return nil
}

// Process runs one poll cycle. Failures are logged and the next call retries; only a fatal condition stops the
// engine, in which case it is delivered on the FatalError channel and all further calls are ignored.
func (e *loggerEngine) Process(ctx context.Context) {
	if e.getFatalError() != nil {
		return
	}

	switch e.getState() {
	case common.Bootstrapping:
		e.processBootstrap(ctx)
	case common.Steady:
		e.processSteady(ctx)
	default:
		log.Error("process called before bootstrap", "name", e.name)
	}
}

func (e *loggerEngine) processBootstrap(ctx context.Context) {
	record, ok := e.fetch(ctx)
	if !ok {
		return
	}

	columns, err := schema.DeriveSchema(record)
	if err != nil {
		e.recordFailure(err)
		log.Warn("sensor record can not define the columns, the output file was not created",
			"url", e.endpointURL, "error", err)
		return
	}

	now := e.timeHandler()
	err = e.storage.Create(columns, schema.Project(record, columns, now.Format(TimestampLayout)))
	if errors.Is(err, os.ErrExist) {
		log.Warn("output file appeared while bootstrapping, adopting its header", "path", e.storage.Path())
		if e.adoptOrFail() {
			e.appendRecord(record)
		}
		return
	}
	if err != nil {
		e.recordFailure(err)
		log.Error("failed to create the output file", "path", e.storage.Path(), "error", err)
		return
	}

	e.mut.Lock()
	e.schema = columns
	e.mut.Unlock()
	e.recordRow(now)
	e.setState(common.Steady)

	log.Info("created the output file", "name", e.name, "path", e.storage.Path(),
		"columns", strings.Join(columns, ","))
}

func (e *loggerEngine) adoptOrFail() bool {
	err := e.adoptExistingHeader()
	if err == nil {
		return true
	}

	e.mut.Lock()
	e.fatalErr = err
	e.lastError = err.Error()
	e.mut.Unlock()

	log.Error("can not use the output file", "path", e.storage.Path(), "error", err)
	e.fatalChan <- err

	return false
}

func (e *loggerEngine) processSteady(ctx context.Context) {
	record, ok := e.fetch(ctx)
	if !ok {
		return
	}

	e.appendRecord(record)
}

func (e *loggerEngine) appendRecord(record common.Record) {
	columns := e.getSchema()
	missing := missingFields(record, columns)
	if len(missing) > 0 {
		log.Debug("sensor record lacks some columns, leaving their cells empty", "fields", strings.Join(missing, ","))
	}

	now := e.timeHandler()
	timestamp := now.Format(TimestampLayout)
	err := e.storage.Append(schema.Project(record, columns, timestamp))
	if err != nil {
		e.recordFailure(err)
		log.Error("failed to append the row", "path", e.storage.Path(), "error", err)
		return
	}

	e.recordRow(now)
	log.Info("data logged", "name", e.name, "timestamp", timestamp)
}

func (e *loggerEngine) fetch(ctx context.Context) (common.Record, bool) {
	start := time.Now()
	record, err := e.fetcher.Fetch(ctx, e.endpointURL)
	e.metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		e.recordFailure(err)
		e.mut.Lock()
		e.fetchFailures++
		e.mut.Unlock()

		log.Warn("failed to fetch the sensor record", "url", e.endpointURL, "error", err)
		return nil, false
	}

	return record, true
}

func missingFields(record common.Record, columns common.Schema) []string {
	missing := make([]string, 0)
	for _, column := range columns {
		if column == schema.TimestampColumn {
			continue
		}
		if _, found := record[column]; !found {
			missing = append(missing, column)
		}
	}

	return missing
}

func (e *loggerEngine) recordFailure(err error) {
	e.mut.Lock()
	e.lastError = err.Error()
	e.mut.Unlock()
}

func (e *loggerEngine) recordRow(writtenAt time.Time) {
	e.mut.Lock()
	e.rowsWritten++
	e.lastRowAt = writtenAt
	e.lastError = ""
	e.mut.Unlock()

	e.metrics.IncRowsWritten()
}

func (e *loggerEngine) setState(state common.State) {
	e.mut.Lock()
	e.state = state
	e.mut.Unlock()

	e.metrics.SetState(state)
}

func (e *loggerEngine) getState() common.State {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.state
}

func (e *loggerEngine) getSchema() common.Schema {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.schema
}

func (e *loggerEngine) getFatalError() error {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return e.fatalErr
}

// FatalError returns the channel on which the engine reports the condition that stopped it
func (e *loggerEngine) FatalError() <-chan error {
	return e.fatalChan
}

// Schema returns a copy of the locked columns, nil while bootstrapping
func (e *loggerEngine) Schema() common.Schema {
	return e.getSchema().Clone()
}

// Status returns a snapshot of the engine counters
func (e *loggerEngine) Status() common.StatusSnapshot {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return common.StatusSnapshot{
		Name:          e.name,
		State:         e.state.String(),
		OutputPath:    e.storage.Path(),
		Columns:       e.schema.Clone(),
		RowsWritten:   e.rowsWritten,
		FetchFailures: e.fetchFailures,
		LastError:     e.lastError,
		LastRowAt:     e.lastRowAt,
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *loggerEngine) IsInterfaceNil() bool {
	return e == nil
}

package controller

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"gait-logger/models"
	"gait-logger/utils"
)

// FilenameOutlet is the outbound outlet carrying derived filenames.
const FilenameOutlet = "filename"

const statsInterval = 5 * time.Second

// Outlet sends a named value back to the host.
type Outlet interface {
	Send(outlet string, value any) error
}

// LoggerState is everything the handlers mutate. There is exactly one per
// process, owned by the LoggerController.
type LoggerState struct {
	Config      models.SensorConfiguration
	Dictionary  *models.Dictionary
	SessionTime time.Time
	ValueStat   models.RunningStat
	StepsStat   models.RunningStat
}

// Identity is the held dictionary's identity, or Unknown.
func (s *LoggerState) Identity() string {
	return s.Dictionary.Identity()
}

// LoggerController dispatches host events to the stream and snapshot
// controllers. Handle is synchronous; Run serializes events, timer
// callbacks, periodic flushes and drain signals on one goroutine.
type LoggerController struct {
	state     LoggerState
	stream    *StreamController
	snapshots *SnapshotController
	outlet    Outlet
	now       utils.Clock
	log       *utils.Logger
	metrics   *utils.Metrics

	flushEvery time.Duration
	tasks      chan func()
}

// Options wires a LoggerController. Config is required; the rest default
// to the OS filesystem, wall-clock time and a silent logger.
type Options struct {
	Config    *utils.Config
	Fs        afero.Fs
	Scheduler utils.Scheduler
	Clock     utils.Clock
	Logger    *utils.Logger
	Metrics   *utils.Metrics
	Outlet    Outlet
}

// NewLoggerController builds the logger state and its controllers.
func NewLoggerController(opts Options) *LoggerController {
	cfg := opts.Config
	if cfg == nil {
		cfg = utils.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = utils.NopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewMetrics()
	}

	stream := NewStreamController(StreamOptions{
		Fs:          opts.Fs,
		Dir:         cfg.Storage.LogsDir,
		HighWater:   cfg.HighWaterBytes(),
		IdleTimeout: cfg.IdleTimeout(),
		Scheduler:   opts.Scheduler,
		Clock:       opts.Clock,
		Logger:      opts.Logger.With("component", "stream"),
		Metrics:     opts.Metrics,
	})
	snapshots := NewSnapshotController(opts.Fs, cfg.Storage.LogsDir,
		cfg.Score.ValueBaseline, cfg.Score.StepsBaseline,
		opts.Logger.With("component", "snapshot"), opts.Metrics)

	return &LoggerController{
		state:      LoggerState{Config: models.DefaultSensorConfiguration()},
		stream:     stream,
		snapshots:  snapshots,
		outlet:     opts.Outlet,
		now:        opts.Clock,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		flushEvery: cfg.FlushInterval(),
		tasks:      make(chan func(), 16),
	}
}

// State returns a copy of the current state.
func (lc *LoggerController) State() LoggerState { return lc.state }

// Stream exposes the stream controller.
func (lc *LoggerController) Stream() *StreamController { return lc.stream }

// Dispatch handles ev and reports any failure on the log. Nothing is ever
// returned to the host.
func (lc *LoggerController) Dispatch(ev models.Event) {
	err := lc.Handle(ev)
	if err == nil {
		return
	}
	kind := utils.KindOf(err)
	if kind == utils.KindValidation || kind == utils.KindPrecondition {
		lc.metrics.EventsRejected.WithLabelValues(ev.Name, kind.String()).Inc()
	}
	lc.log.Report(err, "event", ev.Name)
}

// Handle runs the handler for ev. Rejected events leave the state as it was.
func (lc *LoggerController) Handle(ev models.Event) error {
	switch ev.Name {
	case models.EventTime:
		return lc.handleTime()
	case models.EventSet:
		return lc.handleSet(ev.Args)
	case models.EventSave:
		return lc.handleSave()
	case models.EventValues:
		return lc.handleValues(ev.Args)
	case models.EventSensorType:
		return lc.handleSensorType(ev.Args)
	case models.EventLogSensors:
		return lc.handleLogSensors(ev.Args)
	case models.EventEndFile:
		return lc.stream.Close()
	default:
		return utils.Validation("dispatch", "unknown event %q", ev.Name)
	}
}

func (lc *LoggerController) handleTime() error {
	lc.state.SessionTime = lc.now()
	lc.log.Debug("session time set", "stamp", utils.FileStamp(lc.state.SessionTime))
	return nil
}

func (lc *LoggerController) handleSet(args []any) error {
	if len(args) != 1 {
		return utils.Validation(models.EventSet, "expected 1 dictionary argument, got %d", len(args))
	}
	dict, err := models.NewDictionary(args[0])
	if err != nil {
		return utils.Validation(models.EventSet, "%v", err)
	}
	lc.state.Dictionary = dict

	id := lc.state.Identity()
	name := utils.SnapshotFileName(id, lc.state.SessionTime)
	lc.log.Info("session dictionary set", "identity", id, "sections", len(dict.Sections))
	if lc.outlet != nil {
		if err := lc.outlet.Send(FilenameOutlet, name); err != nil {
			lc.log.Warn("outlet send failed", "outlet", FilenameOutlet, "err", err)
		}
	}

	return lc.stream.Rename(utils.StreamFileName(id, lc.state.SessionTime))
}

func (lc *LoggerController) handleSave() error {
	_, err := lc.snapshots.Save(SnapshotRequest{
		Dictionary:  lc.state.Dictionary,
		SessionTime: lc.state.SessionTime,
		Config:      lc.state.Config,
		ValueStat:   lc.state.ValueStat,
		StepsStat:   lc.state.StepsStat,
	})
	return err
}

func (lc *LoggerController) handleValues(args []any) error {
	sample, ok := models.SampleFromArgs(args)
	if !ok {
		return utils.Validation(models.EventValues, "expected %d values, got %d", models.NumColumns, len(args))
	}
	if d, ok := models.Deviation(sample.ValueDeviation); ok {
		lc.state.ValueStat.Update(d)
	}
	if d, ok := models.Deviation(sample.StepsDeviation); ok {
		lc.state.StepsStat.Update(d)
	}
	name := utils.StreamFileName(lc.state.Identity(), lc.state.SessionTime)
	return lc.stream.OnSample(lc.state.Config, name, sample)
}

func (lc *LoggerController) handleSensorType(args []any) error {
	if len(args) != 1 {
		return utils.Validation(models.EventSensorType, "expected 1 argument, got %d", len(args))
	}
	if err := lc.state.Config.SetSensorType(args[0]); err != nil {
		return utils.Validation(models.EventSensorType, "%v", err)
	}
	lc.log.Info("sensor type set", "type", lc.state.Config.TypeLabel)
	return nil
}

func (lc *LoggerController) handleLogSensors(args []any) error {
	if err := lc.state.Config.SetEnabled(args); err != nil {
		return utils.Validation(models.EventLogSensors, "%v", err)
	}
	lc.log.Info("enabled sensors set", "fingerprint", lc.state.Config.Fingerprint())
	return nil
}

// Run processes events until ctx is cancelled or events is closed, then
// closes the stream. A panic in any handler closes the stream best-effort
// before it propagates.
func (lc *LoggerController) Run(ctx context.Context, events <-chan models.Event) error {
	done := make(chan struct{})
	defer close(done)
	lc.stream.SetPoster(func(f func()) {
		select {
		case lc.tasks <- f:
		case <-done:
		}
	})

	defer func() {
		if r := recover(); r != nil {
			lc.log.Report(utils.Fault("event loop", r))
			lc.stream.CloseOnFault()
			panic(r)
		}
	}()

	flush := time.NewTicker(lc.flushEvery)
	defer flush.Stop()
	stats := time.NewTicker(statsInterval)
	defer stats.Stop()

	lc.log.Info("event loop started", "flush_interval", lc.flushEvery)
	for {
		select {
		case <-ctx.Done():
			lc.shutdown()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				lc.shutdown()
				return nil
			}
			lc.Dispatch(ev)
		case f := <-lc.tasks:
			f()
		case <-flush.C:
			lc.log.Report(lc.stream.Flush())
		case <-lc.stream.Drained():
			lc.log.Report(lc.stream.OnDrain())
		case <-stats.C:
			lc.LogStats()
		}
	}
}

func (lc *LoggerController) shutdown() {
	if lc.stream.IsOpen() {
		lc.log.Report(lc.stream.Close())
	}
	lc.LogStats()
	lc.log.Info("event loop stopped")
}

// CloseOnFault is the best-effort close for a process that is going down.
func (lc *LoggerController) CloseOnFault() {
	lc.stream.CloseOnFault()
}

// LogStats logs the current throughput counters.
func (lc *LoggerController) LogStats() {
	lc.log.Info("stats",
		"rows_written", lc.stream.RowsWritten(),
		"pending_rows", lc.stream.PendingRows(),
		"stream_open", lc.stream.IsOpen(),
		"snapshots", lc.snapshots.Saved())
}

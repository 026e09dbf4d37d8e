package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"gait-logger/models"
	"gait-logger/utils"
	"gait-logger/views"
)

// stepsDeviationLabel labels the step-rate score row.
const stepsDeviationLabel = "Steps/Min Deviation"

// SnapshotController writes the one-shot snapshot CSV on save: the rendered
// dictionary with a freshly computed Score section spliced in.
type SnapshotController struct {
	fs            afero.Fs
	dir           string
	valueBaseline float64
	stepsBaseline float64
	log           *utils.Logger
	metrics       *utils.Metrics
	saved         uint64
}

// SnapshotRequest is everything a save needs from the logger state.
type SnapshotRequest struct {
	Dictionary  *models.Dictionary
	SessionTime time.Time
	Config      models.SensorConfiguration
	ValueStat   models.RunningStat
	StepsStat   models.RunningStat
}

// NewSnapshotController creates a snapshot writer rooted at dir. Baselines
// that are not positive fall back to the standard ones.
func NewSnapshotController(fs afero.Fs, dir string, valueBaseline, stepsBaseline float64, log *utils.Logger, metrics *utils.Metrics) *SnapshotController {
	if valueBaseline <= 0 {
		valueBaseline = models.ValueDeviationBaseline
	}
	if stepsBaseline <= 0 {
		stepsBaseline = models.StepsDeviationBaseline
	}
	return &SnapshotController{
		fs:            fs,
		dir:           dir,
		valueBaseline: valueBaseline,
		stepsBaseline: stepsBaseline,
		log:           log,
		metrics:       metrics,
	}
}

// Save renders and writes the snapshot, overwriting any previous one for
// the same identity and session time. It returns the written path.
func (sn *SnapshotController) Save(req SnapshotRequest) (string, error) {
	if req.Dictionary == nil {
		return "", utils.Precondition("save snapshot", utils.ErrNoDictionary)
	}

	id := req.Dictionary.Identity()
	path := filepath.Join(sn.dir, utils.SnapshotFileName(id, req.SessionTime))
	if id != models.UnknownIdentity {
		sn.removeStale(req.SessionTime)
	}

	text := views.SpliceSection(views.RenderSnapshot(req.Dictionary), sn.scoreSection(req))

	if err := sn.fs.MkdirAll(sn.dir, 0755); err != nil {
		return "", utils.IO("save snapshot", fmt.Errorf("create log dir: %w", err))
	}
	if err := sn.replaceFile(path, []byte(text)); err != nil {
		return "", utils.IO("save snapshot", err)
	}

	sn.saved++
	sn.metrics.Snapshots.Inc()
	sn.log.Info("snapshot saved", "file", filepath.Base(path), "bytes", len(text))
	return path, nil
}

func (sn *SnapshotController) scoreSection(req SnapshotRequest) []string {
	value := req.ValueStat.Finalize()
	steps := req.StepsStat.Finalize()
	_, deviationLabel := views.PrimaryLabels(req.Config.TypeLabel)

	rows := []views.ScoreRow{
		{Label: deviationLabel, Score: models.Score(value.StdDev, sn.valueBaseline)},
		{Label: stepsDeviationLabel, Score: models.Score(steps.StdDev, sn.stepsBaseline)},
	}
	sn.log.Debug("scores computed",
		"value_mean", value.Mean, "value_sd", value.StdDev, "value_score", rows[0].Score,
		"steps_mean", steps.Mean, "steps_sd", steps.StdDev, "steps_score", rows[1].Score)
	return views.RenderScoreSection(rows)
}

// replaceFile writes data to a temporary file next to path and renames it
// over path, so a failed save leaves the previous snapshot intact.
func (sn *SnapshotController) replaceFile(path string, data []byte) error {
	tmp, err := afero.TempFile(sn.fs, sn.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if err := errors.Join(werr, tmp.Close()); err != nil {
		_ = sn.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := sn.fs.Chmod(tmpName, 0644); err != nil {
		_ = sn.fs.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := sn.fs.Rename(tmpName, path); err != nil {
		_ = sn.fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// removeStale deletes the snapshot written under the Unknown identity for the
// same session time, now superseded. Failures are only logged.
func (sn *SnapshotController) removeStale(session time.Time) {
	stale := filepath.Join(sn.dir, utils.SnapshotFileName(models.UnknownIdentity, session))
	exists, err := afero.Exists(sn.fs, stale)
	if err != nil || !exists {
		return
	}
	if err := sn.fs.Remove(stale); err != nil {
		sn.log.Warn("could not remove stale snapshot", "file", filepath.Base(stale), "err", err)
		return
	}
	sn.log.Info("removed stale snapshot", "file", filepath.Base(stale))
}

// Saved returns the number of snapshots written.
func (sn *SnapshotController) Saved() uint64 { return sn.saved }

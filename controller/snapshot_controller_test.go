package controller

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gait-logger/models"
	"gait-logger/utils"
	"gait-logger/views"
)

func newSnapshotFixture() (afero.Fs, *utils.Metrics, *SnapshotController) {
	fs := afero.NewMemMapFs()
	metrics := utils.NewMetrics()
	return fs, metrics, NewSnapshotController(fs, testDir, 0, 0, utils.NopLogger(), metrics)
}

func testDictionary(t *testing.T, id string) *models.Dictionary {
	t.Helper()
	d, err := models.DecodeDictionary([]byte(
		`{"Infos": {"ID": "` + id + `", "Name": "ana"}, "Session": {"Mode": "walk"}}`))
	require.NoError(t, err)
	return d
}

func statOf(samples ...float64) models.RunningStat {
	var rs models.RunningStat
	for _, s := range samples {
		rs.Update(s)
	}
	return rs
}

func TestSnapshotRequiresDictionary(t *testing.T) {
	fs, _, sn := newSnapshotFixture()
	_, err := sn.Save(SnapshotRequest{SessionTime: sessionStart})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrNoDictionary)
	assert.Equal(t, utils.KindPrecondition, utils.KindOf(err))

	exists, _ := afero.DirExists(fs, testDir)
	assert.False(t, exists, "nothing is written without a dictionary")
}

func TestSnapshotContent(t *testing.T) {
	fs, metrics, sn := newSnapshotFixture()
	cfg := models.DefaultSensorConfiguration()
	require.NoError(t, cfg.SetSensorType("emg"))

	path, err := sn.Save(SnapshotRequest{
		Dictionary:  testDictionary(t, "P001"),
		SessionTime: sessionStart,
		Config:      cfg,
		ValueStat:   statOf(0.75, 0.75),
		StepsStat:   statOf(1, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, "P001_"+testStamp+".csv", path[len(testDir)+1:])

	// sd(1, 6) = 3.5355..., 100 - 3.5355/5*50 = 64.64
	want := views.Preamble +
		`"Infos";"ID";"P001"` + "\n" +
		`"Infos";"Name";"Ana"` + "\n\n" +
		`"Score";"Force Deviation";"100.00"` + "\n" +
		`"Score";"Steps/Min Deviation";"64.64"` + "\n\n" +
		`"Session";"Mode";"Walk"` + "\n\n"
	assert.Equal(t, want, readFile(t, fs, "P001_"+testStamp+".csv"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Snapshots))
}

func TestSnapshotSaveIsIdempotent(t *testing.T) {
	fs, _, sn := newSnapshotFixture()
	req := SnapshotRequest{
		Dictionary:  testDictionary(t, "P001"),
		SessionTime: sessionStart,
		Config:      models.DefaultSensorConfiguration(),
		ValueStat:   statOf(0.1, 0.3, 0.2),
		StepsStat:   statOf(2, 4),
	}

	_, err := sn.Save(req)
	require.NoError(t, err)
	first := readFile(t, fs, "P001_"+testStamp+".csv")

	_, err = sn.Save(req)
	require.NoError(t, err)
	second := readFile(t, fs, "P001_"+testStamp+".csv")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, strings.Count(second, `"Score";"Deviation"`))
	assert.Equal(t, uint64(2), sn.Saved())

	entries, err := afero.ReadDir(fs, testDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

// failingWriteFs hands out files whose writes fail for every file created
// exclusively, which is how temporary files are opened.
type failingWriteFs struct{ afero.Fs }

func (f failingWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&os.O_EXCL == 0 {
		return file, err
	}
	return failingFile{file}, nil
}

type failingFile struct{ afero.File }

func (failingFile) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestSnapshotFailedSaveKeepsPreviousFile(t *testing.T) {
	fs, _, sn := newSnapshotFixture()
	req := SnapshotRequest{
		Dictionary:  testDictionary(t, "P001"),
		SessionTime: sessionStart,
		Config:      models.DefaultSensorConfiguration(),
		ValueStat:   statOf(0.1, 0.3),
	}
	_, err := sn.Save(req)
	require.NoError(t, err)
	before := readFile(t, fs, "P001_"+testStamp+".csv")

	broken := NewSnapshotController(failingWriteFs{fs}, testDir, 0, 0, utils.NopLogger(), utils.NewMetrics())
	req.ValueStat = statOf(0.1, 0.9, 0.5)
	_, err = broken.Save(req)
	require.Error(t, err)
	assert.Equal(t, utils.KindIO, utils.KindOf(err))

	assert.Equal(t, before, readFile(t, fs, "P001_"+testStamp+".csv"))
	entries, err := afero.ReadDir(fs, testDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the failed temporary file is removed")
}

func TestSnapshotRemovesStaleUnknown(t *testing.T) {
	fs, _, sn := newSnapshotFixture()
	req := SnapshotRequest{
		Dictionary:  testDictionary(t, " "),
		SessionTime: sessionStart,
		Config:      models.DefaultSensorConfiguration(),
	}

	_, err := sn.Save(req)
	require.NoError(t, err)
	stale := models.UnknownIdentity + "_" + testStamp + ".csv"
	assert.True(t, fileExists(t, fs, stale))

	// A second Unknown save keeps the file.
	_, err = sn.Save(req)
	require.NoError(t, err)
	assert.True(t, fileExists(t, fs, stale))

	req.Dictionary = testDictionary(t, "P001")
	_, err = sn.Save(req)
	require.NoError(t, err)
	assert.False(t, fileExists(t, fs, stale))
	assert.True(t, fileExists(t, fs, "P001_"+testStamp+".csv"))
}

func TestSnapshotWithoutSessionTime(t *testing.T) {
	fs, _, sn := newSnapshotFixture()
	_, err := sn.Save(SnapshotRequest{
		Dictionary: testDictionary(t, "P001"),
		Config:     models.DefaultSensorConfiguration(),
	})
	require.NoError(t, err)
	assert.True(t, fileExists(t, fs, "P001_Unknown.csv"))
}

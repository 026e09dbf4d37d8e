package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestamps(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 15, 4, 5, 120*int(time.Millisecond), time.UTC)

	assert.Equal(t, "15:04:05.120", RowTimestamp(ts))
	assert.Equal(t, "2024-03-07_15-04-05", FileStamp(ts))
	assert.Equal(t, "P001_2024-03-07_15-04-05.csv", SnapshotFileName("P001", ts))
	assert.Equal(t, "P001_2024-03-07_15-04-05_Sensors.csv", StreamFileName("P001", ts))
}

func TestTimestampsWithoutSessionTime(t *testing.T) {
	assert.Equal(t, UnknownPart, FileStamp(time.Time{}))
	assert.Equal(t, "Unknown_Unknown.csv", SnapshotFileName("Unknown", time.Time{}))
	assert.Equal(t, "Unknown_Unknown_Sensors.csv", StreamFileName("Unknown", time.Time{}))
}

func TestRowTimestampIs24Hour(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 23, 59, 59, 999*int(time.Millisecond), time.UTC)
	assert.Equal(t, "23:59:59.999", RowTimestamp(ts))
}

package utils

import (
	"fmt"
	"time"
)

// UnknownPart stands in for any filename component that is not known yet.
const UnknownPart = "Unknown"

const (
	rowLayout  = "15:04:05.000"
	fileLayout = "2006-01-02_15-04-05"
)

// Clock returns the current wall-clock time. Tests substitute a fixed one.
type Clock func() time.Time

// RowTimestamp formats t as HH:MM:SS.mmm in 24-hour form.
func RowTimestamp(t time.Time) string {
	return t.Format(rowLayout)
}

// FileStamp formats the session timestamp used in filenames as
// YYYY-MM-DD_HH-mm-ss. The zero time means no time() event was seen yet.
func FileStamp(t time.Time) string {
	if t.IsZero() {
		return UnknownPart
	}
	return t.Format(fileLayout)
}

// SnapshotFileName returns the snapshot CSV name:
//
//	<id>_YYYY-MM-DD_HH-mm-ss.csv
func SnapshotFileName(id string, session time.Time) string {
	return fmt.Sprintf("%s_%s.csv", id, FileStamp(session))
}

// StreamFileName returns the streaming CSV name:
//
//	<id>_YYYY-MM-DD_HH-mm-ss_Sensors.csv
func StreamFileName(id string, session time.Time) string {
	return fmt.Sprintf("%s_%s_Sensors.csv", id, FileStamp(session))
}

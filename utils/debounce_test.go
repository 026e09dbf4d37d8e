package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gait-logger/utils"
	"gait-logger/utils/utilstest"
)

func TestDebouncerFiresAfterDelay(t *testing.T) {
	sched := utilstest.NewManualScheduler()
	d := utils.NewDebouncer(sched, time.Second)

	fired := 0
	d.Schedule(func() { fired++ })

	sched.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, fired)
	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	sched.Advance(time.Hour)
	assert.Equal(t, 1, fired, "a debounced callback fires once")
}

func TestDebouncerRescheduleCancelsPrevious(t *testing.T) {
	sched := utilstest.NewManualScheduler()
	d := utils.NewDebouncer(sched, time.Second)

	var got []string
	d.Schedule(func() { got = append(got, "first") })
	sched.Advance(900 * time.Millisecond)
	d.Schedule(func() { got = append(got, "second") })
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(900 * time.Millisecond)
	assert.Empty(t, got)
	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"second"}, got)
}

func TestDebouncerCancel(t *testing.T) {
	sched := utilstest.NewManualScheduler()
	d := utils.NewDebouncer(sched, time.Second)

	assert.False(t, d.Cancel(), "nothing scheduled")

	fired := false
	d.Schedule(func() { fired = true })
	assert.True(t, d.Cancel())
	sched.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Zero(t, sched.Pending())
}

func TestDebouncerWallClock(t *testing.T) {
	d := utils.NewDebouncer(nil, 10*time.Millisecond)
	done := make(chan struct{})
	d.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wall-clock debouncer never fired")
	}
	assert.Equal(t, 10*time.Millisecond, d.Delay())
}

package models

// Inbound event names delivered by the host.
const (
	EventTime       = "time"
	EventSet        = "set"
	EventSave       = "save"
	EventValues     = "values"
	EventSensorType = "sensor_type"
	EventLogSensors = "log_sensors"
	EventEndFile    = "endFile"
)

// EventNames lists every accepted inbound event.
var EventNames = []string{
	EventTime, EventSet, EventSave, EventValues,
	EventSensorType, EventLogSensors, EventEndFile,
}

// Event is one discrete command from the host.
type Event struct {
	Name string
	Args []any
}

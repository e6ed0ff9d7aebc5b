// Package sensor defines the external environmental sensor collaborator.
//
// The real sensor client is out of scope for this repo: only the interface
// and a fixed-record stub implementation ship here. The Profiler consults
// this interface and always has a documented default to fall back to, so a
// missing or erroring sensor is never fatal.
package sensor

// Reading is the environmental snapshot a device reports.
type Reading struct {
	CurrentWatts   float64
	CurrentTempC   float64
	LatencyMs      float64
	BandwidthMbps  float64
	ThroughputMbps float64
	Score          float64
}

// Defaults replace the whole reading when the Profiler has no sensor or the
// sensor returns an error. Individual zero-valued fields of a returned
// Reading are used as they are, not replaced by defaults.
var Defaults = Reading{
	CurrentWatts:   75.5,
	CurrentTempC:   65.2,
	LatencyMs:      15.3,
	BandwidthMbps:  980,
	ThroughputMbps: 250,
	Score:          0.95,
}

// EnvironmentSensor is the pluggable collaborator the Profiler queries for
// live environmental readings.
type EnvironmentSensor interface {
	GetDeviceStatus(deviceID string) (Reading, error)
}

// FixedStub is the only concrete EnvironmentSensor implementation this repo
// ships: it always returns one fixed record, plus a one-shot override slot
// tests can use to inject exact values for the next call. It exercises the
// same interface a production client would satisfy without needing one.
type FixedStub struct {
	Fixed    Reading
	override *Reading
}

// NewFixedStub constructs a stub returning Defaults until reconfigured.
func NewFixedStub() *FixedStub {
	return &FixedStub{Fixed: Defaults}
}

// OverrideNext arms a one-shot override consumed by the very next GetDeviceStatus call.
func (s *FixedStub) OverrideNext(r Reading) {
	s.override = &r
}

// GetDeviceStatus implements EnvironmentSensor. deviceID is accepted for
// interface conformance but the stub does not vary by device.
func (s *FixedStub) GetDeviceStatus(deviceID string) (Reading, error) {
	if s.override != nil {
		r := *s.override
		s.override = nil
		return r, nil
	}
	return s.Fixed, nil
}

package reading

import "strings"

// Measurement represents a single (kind, value) pair within a sensor reading.
// Values arrive as strings regardless of what they encode.
type Measurement struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// SensorReading represents the raw, device-submitted payload prior to
// validation. The measurements slice is ordered; kind uniqueness is not
// enforced at this layer.
type SensorReading struct {
	DeviceID        string        `json:"device_id"`
	SoftwareVersion string        `json:"software_version"`
	Measurements    []Measurement `json:"measurements"`
}

// Legacy positions of the required measurements. Old esp8266 firmware emits
// measurements in a fixed canonical order, so these indices are a
// compatibility contract for payloads whose kind labels do not identify the
// measurement.
const (
	LegacyTemperatureIndex = 2
	LegacyPressureIndex    = 3
	LegacyHumidityIndex    = 4
)

// Find returns the raw value of the measurement whose kind carries the given
// label, matching case-insensitively so vendor-prefixed kinds such as
// "BME280_temperature" resolve to "temperature". When no kind matches, the
// legacy positional contract is consulted as a fallback. The second return
// reports whether any value was found.
func (r SensorReading) Find(label string, legacyIndex int) (string, bool) {
	label = strings.ToLower(label)
	for _, m := range r.Measurements {
		if strings.Contains(strings.ToLower(m.Kind), label) {
			return m.Value, true
		}
	}

	if legacyIndex >= 0 && legacyIndex < len(r.Measurements) {
		return r.Measurements[legacyIndex].Value, true
	}

	return "", false
}

// Temperature returns the raw temperature value, if present
func (r SensorReading) Temperature() (string, bool) {
	return r.Find("temperature", LegacyTemperatureIndex)
}

// Pressure returns the raw pressure value in pascals, if present
func (r SensorReading) Pressure() (string, bool) {
	return r.Find("pressure", LegacyPressureIndex)
}

// Humidity returns the raw humidity value, if present
func (r SensorReading) Humidity() (string, bool) {
	return r.Find("humidity", LegacyHumidityIndex)
}

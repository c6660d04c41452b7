package transformer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddielth/sensor-gate/config"
	"github.com/eddielth/sensor-gate/reading"
	"github.com/eddielth/sensor-gate/validator"
)

// relabelScript fixes a firmware line that ships unlabeled measurement kinds
const relabelScript = `
function transform(payload) {
	var r = parseJSON(payload);
	var kinds = ["dust_p1", "dust_p2", "BME280_temperature", "BME280_pressure", "BME280_humidity"];
	for (var i = 0; i < r.measurements.length && i < kinds.length; i++) {
		r.measurements[i].kind = kinds[i];
	}
	return r;
}
`

func TestScriptManagerPreprocess(t *testing.T) {
	scripts, err := NewScriptManager(map[string]config.ScriptConfig{
		"WX-1": {ScriptCode: relabelScript},
	})
	require.NoError(t, err)

	r := reading.SensorReading{
		DeviceID:        "wx-0001",
		SoftwareVersion: "WX-1-007",
		Measurements: []reading.Measurement{
			{Kind: "m0", Value: "1"},
			{Kind: "m1", Value: "2"},
			{Kind: "m2", Value: "21.5"},
			{Kind: "m3", Value: "101325"},
			{Kind: "m4", Value: "60"},
		},
	}

	normalized, applied, err := scripts.Preprocess(r)
	require.NoError(t, err)
	assert.True(t, applied, "WX-1 should prefix-match WX-1-007")
	assert.Equal(t, "BME280_temperature", normalized.Measurements[2].Kind)
	assert.Equal(t, "wx-0001", normalized.DeviceID)
}

func TestScriptManagerNoMatch(t *testing.T) {
	scripts, err := NewScriptManager(map[string]config.ScriptConfig{
		"WX-1": {ScriptCode: relabelScript},
	})
	require.NoError(t, err)

	r := reading.SensorReading{SoftwareVersion: "NRZ-2024-135"}
	normalized, applied, err := scripts.Preprocess(r)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, r, normalized)
}

func TestScriptManagerRejectsBrokenScript(t *testing.T) {
	_, err := NewScriptManager(map[string]config.ScriptConfig{
		"WX-1": {ScriptCode: `var x = "no transform function here";`},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
}

func TestScriptManagerRequiresCodeOrPath(t *testing.T) {
	_, err := NewScriptManager(map[string]config.ScriptConfig{
		"WX-1": {},
	})
	require.Error(t, err)
}

func TestScriptManagerReload(t *testing.T) {
	scripts, err := NewScriptManager(map[string]config.ScriptConfig{})
	require.NoError(t, err)

	err = scripts.Reload("WX-2", config.ScriptConfig{ScriptCode: relabelScript})
	require.NoError(t, err)

	r := reading.SensorReading{
		DeviceID:        "wx-0002",
		SoftwareVersion: "WX-2-001",
		Measurements: []reading.Measurement{
			{Kind: "m0", Value: "1"},
			{Kind: "m1", Value: "2"},
			{Kind: "m2", Value: "21.5"},
		},
	}

	normalized, applied, err := scripts.Preprocess(r)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "BME280_temperature", normalized.Measurements[2].Kind)
}

func TestTransformWithScript(t *testing.T) {
	scripts, err := NewScriptManager(map[string]config.ScriptConfig{
		"WX-1": {ScriptCode: relabelScript},
	})
	require.NoError(t, err)

	tr := New(true, validator.DefaultRanges(), scripts)

	r := reading.SensorReading{
		DeviceID:        "wx-0001",
		SoftwareVersion: "WX-1-007",
		Measurements: []reading.Measurement{
			{Kind: "m0", Value: "1"},
			{Kind: "m1", Value: "2"},
			{Kind: "m2", Value: "21.5"},
			{Kind: "m3", Value: "101325"},
			{Kind: "m4", Value: "60"},
		},
	}

	record, err := tr.Transform(r)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "1013.25", record.Pressure.StringFixed(2))

	// RawData keeps the original kinds, not the script-normalized ones
	assert.Contains(t, string(record.RawData), `"m3"`)
}

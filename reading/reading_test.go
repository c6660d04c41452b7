package reading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func labeled() SensorReading {
	return SensorReading{
		DeviceID:        "esp8266-0001",
		SoftwareVersion: "NRZ-2024-135",
		Measurements: []Measurement{
			{Kind: "SDS_P1", Value: "6.10"},
			{Kind: "SDS_P2", Value: "2.40"},
			{Kind: "BME280_temperature", Value: "21.5"},
			{Kind: "BME280_pressure", Value: "101325"},
			{Kind: "BME280_humidity", Value: "60"},
		},
	}
}

func TestFindByVendorPrefixedLabel(t *testing.T) {
	r := labeled()

	temp, ok := r.Temperature()
	assert.True(t, ok)
	assert.Equal(t, "21.5", temp)

	pressure, ok := r.Pressure()
	assert.True(t, ok)
	assert.Equal(t, "101325", pressure)

	humidity, ok := r.Humidity()
	assert.True(t, ok)
	assert.Equal(t, "60", humidity)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	r := SensorReading{
		Measurements: []Measurement{
			{Kind: "Temperature", Value: "19"},
		},
	}

	value, ok := r.Temperature()
	assert.True(t, ok)
	assert.Equal(t, "19", value)
}

func TestFindLegacyPositionalFallback(t *testing.T) {
	r := SensorReading{
		Measurements: []Measurement{
			{Kind: "a", Value: "0"},
			{Kind: "b", Value: "1"},
			{Kind: "c", Value: "21.5"},
			{Kind: "d", Value: "101325"},
			{Kind: "e", Value: "60"},
		},
	}

	temp, ok := r.Temperature()
	assert.True(t, ok)
	assert.Equal(t, "21.5", temp)

	pressure, ok := r.Pressure()
	assert.True(t, ok)
	assert.Equal(t, "101325", pressure)

	humidity, ok := r.Humidity()
	assert.True(t, ok)
	assert.Equal(t, "60", humidity)
}

func TestFindMissing(t *testing.T) {
	r := SensorReading{
		Measurements: []Measurement{
			{Kind: "a", Value: "0"},
			{Kind: "b", Value: "1"},
		},
	}

	_, ok := r.Temperature()
	assert.False(t, ok, "position 2 does not exist and no label matches")

	_, ok = r.Humidity()
	assert.False(t, ok)

	empty := SensorReading{}
	_, ok = empty.Pressure()
	assert.False(t, ok)
}

func TestFindLabelWinsOverPosition(t *testing.T) {
	// Humidity sits at the temperature's legacy position; labels must win
	r := SensorReading{
		Measurements: []Measurement{
			{Kind: "x", Value: "0"},
			{Kind: "y", Value: "1"},
			{Kind: "BME280_humidity", Value: "60"},
			{Kind: "BME280_temperature", Value: "21.5"},
			{Kind: "BME280_pressure", Value: "101325"},
		},
	}

	temp, ok := r.Temperature()
	assert.True(t, ok)
	assert.Equal(t, "21.5", temp)

	humidity, ok := r.Humidity()
	assert.True(t, ok)
	assert.Equal(t, "60", humidity)
}

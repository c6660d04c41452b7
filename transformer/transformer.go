// Package transformer converts untrusted, loosely-typed device payloads into
// quality-checked, precision-normalized records suitable for storage and
// messaging.
package transformer

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/reading"
	"github.com/eddielth/sensor-gate/validator"
)

// Transformer validates and normalizes sensor readings. It is stateless per
// call beyond its read-only configuration and safe for concurrent use.
type Transformer struct {
	strict  bool
	ranges  validator.Ranges
	scripts *ScriptManager
}

// New creates a transformer. In strict mode any data-quality violation aborts
// the transformation with a *validator.DataQualityError; otherwise violations
// are logged and the reading is silently dropped (nil record, nil error).
// A nil script manager disables firmware preprocessing.
func New(strict bool, ranges validator.Ranges, scripts *ScriptManager) *Transformer {
	return &Transformer{
		strict:  strict,
		ranges:  ranges,
		scripts: scripts,
	}
}

// Transform produces a Record from a sensor reading, or reports why it could
// not. A record is either fully populated and valid or does not exist; no
// partial record is ever returned in either mode.
func (t *Transformer) Transform(r reading.SensorReading) (*Record, error) {
	// Capture the raw payload before any validation so it survives failures
	// and can be audited in lenient mode
	rawData, err := json.Marshal(r)
	if err != nil {
		return t.drop(&validator.DataQualityError{
			Field:  "RawData",
			Reason: validator.ReasonEncoding,
			Cause:  err,
		})
	}

	// Firmware-specific payload shapes are normalized before extraction; the
	// captured raw payload stays verbatim
	work := r
	if t.scripts != nil {
		pre, applied, err := t.scripts.Preprocess(r)
		if err != nil {
			logger.Warn("firmware script failed for device %s (version %s), using payload as-is: %v",
				r.DeviceID, r.SoftwareVersion, err)
		} else if applied {
			work = pre
		}
	}

	temperature, tempErr := t.extract(work.Temperature, t.ranges.Temperature, false)
	pressure, presErr := t.extract(work.Pressure, t.ranges.Pressure, true)
	humidity, humErr := t.extract(work.Humidity, t.ranges.Humidity, false)

	for _, extractErr := range []*validator.DataQualityError{tempErr, presErr, humErr} {
		if extractErr == nil {
			continue
		}
		if t.strict {
			return nil, extractErr
		}
		logger.Warn("dropping field from reading of device %s: %v", r.DeviceID, extractErr)
	}

	// Lenient mode: a reading missing any of the three fields is dropped
	// whole rather than stored partially
	if tempErr != nil || presErr != nil || humErr != nil {
		logger.Warn("reading from device %s dropped, no record produced", r.DeviceID)
		return nil, nil
	}

	record := &Record{
		Temperature: temperature.Round(2),
		Pressure:    pressure.Round(2),
		Humidity:    humidity.Round(2),
		RawData:     rawData,
	}

	logger.Debug("transformed reading from device %s: temperature=%s pressure=%s humidity=%s",
		r.DeviceID, record.Temperature, record.Pressure, record.Humidity)

	return record, nil
}

// drop applies the failure policy to an error raised before extraction
func (t *Transformer) drop(err *validator.DataQualityError) (*Record, error) {
	if t.strict {
		return nil, err
	}
	logger.Warn("dropping reading: %v", err)
	return nil, nil
}

// extract fetches one required measurement, parses it as an exact decimal and
// validates it against its range. Pressure arrives in pascals and is converted
// to hectopascals before validation.
func (t *Transformer) extract(get func() (string, bool), rng validator.Range, pascals bool) (decimal.Decimal, *validator.DataQualityError) {
	raw, found := get()
	if !found {
		return decimal.Decimal{}, &validator.DataQualityError{
			Field:  rng.Field,
			Reason: validator.ReasonMissing,
		}
	}

	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, &validator.DataQualityError{
			Field:  rng.Field,
			Reason: validator.ReasonNotNumeric,
			Value:  raw,
		}
	}

	if pascals {
		// Pa -> hPa is a pure exponent shift, no precision loss
		value = value.Shift(-2)
	}

	if checkErr := rng.Check(value); checkErr != nil {
		return decimal.Decimal{}, checkErr
	}

	return value, nil
}

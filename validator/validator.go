// Package validator holds the acceptable bounds for each measurement kind and
// the data-quality error taxonomy produced when a reading violates them.
package validator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Reason classifies a data-quality violation
type Reason int

const (
	// ReasonMissing indicates a required measurement is absent
	ReasonMissing Reason = iota
	// ReasonNotNumeric indicates a value that does not parse as a number
	ReasonNotNumeric
	// ReasonOutOfRange indicates a value outside its configured bounds
	ReasonOutOfRange
	// ReasonEncoding indicates the raw payload could not be serialized
	ReasonEncoding
)

// String returns the string representation of a Reason
func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonNotNumeric:
		return "not numeric"
	case ReasonOutOfRange:
		return "out of range"
	case ReasonEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// DataQualityError is the only error kind raised across the transformation
// path. It carries the violated field, the offending value and, for range
// violations, the expected bounds.
type DataQualityError struct {
	Field  string
	Reason Reason
	Value  string
	Min    decimal.Decimal
	Max    decimal.Decimal
	Cause  error
}

// Error implements the error interface
func (e *DataQualityError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("field %s is missing", e.Field)
	case ReasonNotNumeric:
		return fmt.Sprintf("field %s value %q is not numeric", e.Field, e.Value)
	case ReasonOutOfRange:
		return fmt.Sprintf("field %s value %s is out of range [%s, %s]",
			e.Field, e.Value, e.Min, e.Max)
	case ReasonEncoding:
		return fmt.Sprintf("failed to encode raw payload: %v", e.Cause)
	default:
		return fmt.Sprintf("field %s failed data quality checks", e.Field)
	}
}

// Unwrap exposes the underlying cause, if any
func (e *DataQualityError) Unwrap() error {
	return e.Cause
}

// Range represents the inclusive bounds for one measurement field
type Range struct {
	Field string
	Min   decimal.Decimal
	Max   decimal.Decimal
}

// NewRange builds a Range from float bounds
func NewRange(field string, min, max float64) Range {
	return Range{
		Field: field,
		Min:   decimal.NewFromFloat(min),
		Max:   decimal.NewFromFloat(max),
	}
}

// Check validates a parsed value against the range. Both ends are inclusive:
// a value exactly equal to Min or Max is accepted.
func (r Range) Check(value decimal.Decimal) *DataQualityError {
	if value.LessThan(r.Min) || value.GreaterThan(r.Max) {
		return &DataQualityError{
			Field:  r.Field,
			Reason: ReasonOutOfRange,
			Value:  value.String(),
			Min:    r.Min,
			Max:    r.Max,
		}
	}
	return nil
}

// Ranges represents the process-wide validation bounds, set at startup and
// read-only thereafter
type Ranges struct {
	Temperature Range
	Pressure    Range
	Humidity    Range
}

// DefaultRanges returns the bounds used when no configuration is supplied:
// temperature in Celsius, pressure in hectopascals, humidity in percent
func DefaultRanges() Ranges {
	return Ranges{
		Temperature: NewRange("Temperature", -50, 85),
		Pressure:    NewRange("Pressure", 300, 1100),
		Humidity:    NewRange("Humidity", 0, 100),
	}
}

// NewRanges builds Ranges from raw bounds, rejecting any pair with min > max
func NewRanges(tempMin, tempMax, pressureMin, pressureMax, humidityMin, humidityMax float64) (Ranges, error) {
	ranges := Ranges{
		Temperature: NewRange("Temperature", tempMin, tempMax),
		Pressure:    NewRange("Pressure", pressureMin, pressureMax),
		Humidity:    NewRange("Humidity", humidityMin, humidityMax),
	}
	if err := ranges.Validate(); err != nil {
		return Ranges{}, err
	}
	return ranges, nil
}

// Validate enforces min <= max for every pair
func (rs Ranges) Validate() error {
	for _, r := range []Range{rs.Temperature, rs.Pressure, rs.Humidity} {
		if r.Min.GreaterThan(r.Max) {
			return fmt.Errorf("invalid %s range: min %s is greater than max %s",
				r.Field, r.Min, r.Max)
		}
	}
	return nil
}

package transformer

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Record represents the validated, range-checked, precision-normalized output
// of the transformer. The three measurements are rounded to two decimal places
// (half away from zero) to match the fixed-precision storage columns; RawData
// preserves the full original payload verbatim for audit and debugging.
// A record is never mutated after creation.
type Record struct {
	Temperature decimal.Decimal `json:"temperature"`
	Pressure    decimal.Decimal `json:"pressure"`
	Humidity    decimal.Decimal `json:"humidity"`
	RawData     json.RawMessage `json:"raw_data"`
}

// MarshalJSON renders the measurements with exactly two fraction digits as
// strings, so no consumer re-parses them through binary floating point
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Temperature string          `json:"temperature"`
		Pressure    string          `json:"pressure"`
		Humidity    string          `json:"humidity"`
		RawData     json.RawMessage `json:"raw_data"`
	}{
		Temperature: r.Temperature.StringFixed(2),
		Pressure:    r.Pressure.StringFixed(2),
		Humidity:    r.Humidity.StringFixed(2),
		RawData:     r.RawData,
	})
}

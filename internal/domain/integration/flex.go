package integration

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexString decodes a JSON string or number into its textual form.
// Lazada sends ids, codes and message types as either, depending on the endpoint.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// Decimal parses the value, returning zero when it is not numeric
func (s FlexString) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Int64 parses the value, returning zero when it is not numeric
func (s FlexString) Int64() int64 {
	return s.Decimal().IntPart()
}

// Int parses an integer strictly; an empty value is (0, true).
func (s FlexString) Int() (int, bool) {
	raw := strings.TrimSpace(string(s))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

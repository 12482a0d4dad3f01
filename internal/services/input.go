package services

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Scalar holds a JSON string or number as its text. Amounts and dates are
// accepted in either form and parsed by the services, so bad values become
// field errors instead of decode failures.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return errors.New("value must be a string or a number")
	}
	*s = Scalar(num)
	return nil
}

func (s *Scalar) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Ptr helpers for building partial inputs.
func StringPtr(s string) *string { return &s }
func ScalarPtr(s string) *Scalar { v := Scalar(s); return &v }

package common

import (
	"bytes"

	"github.com/spf13/cast"
)

// FlexInt64 decodes a JSON number, a numeric string or null/"" as int64.
// Snowflake ids travel as strings to keep browsers from rounding them.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		*f = 0
		return nil
	}
	v, err := cast.ToInt64E(s)
	if err != nil {
		return err
	}
	*f = FlexInt64(v)
	return nil
}

func (f FlexInt64) Int64() int64 {
	return int64(f)
}

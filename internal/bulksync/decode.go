package bulksync

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// castHook coerces loosely typed cell values (strings from spreadsheets,
// float64 from JSON) into the scalar kinds of the input structs.
func castHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if s, ok := data.(string); ok {
		s = strings.TrimSpace(s)
		data = s
		if s == "" {
			switch to.Kind() {
			case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return 0, nil
			case reflect.Float32, reflect.Float64:
				return 0.0, nil
			}
		}
	}
	switch to.Kind() {
	case reflect.String:
		return cast.ToStringE(data)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cast.ToInt64E(data)
	case reflect.Float32, reflect.Float64:
		return cast.ToFloat64E(data)
	case reflect.Bool:
		return cast.ToBoolE(data)
	}
	return data, nil
}

// decodeRow fills out from row. Keys are matched case-insensitively after
// trimming.
func decodeRow(row map[string]interface{}, out interface{}) error {
	clean := make(map[string]interface{}, len(row))
	for k, v := range row {
		clean[strings.TrimSpace(k)] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       castHook,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(clean)
}

package trace

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// canonicalInt is the only integer spelling accepted from strings: base 10,
// an optional minus sign and no leading zeros.
var canonicalInt = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)

// StrictIntHook converts strings into integer fields as base 10 only.
// mapstructure's weak conversion alone would accept "0x10", "010", "1_0"
// and turn "" into 0.
func StrictIntHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		s := reflect.ValueOf(data).String()
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !canonicalInt.MatchString(s) {
				return nil, fmt.Errorf("invalid integer %q", s)
			}
			return strconv.ParseInt(s, 10, to.Bits())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if !canonicalInt.MatchString(s) || s[0] == '-' {
				return nil, fmt.Errorf("invalid unsigned integer %q", s)
			}
			return strconv.ParseUint(s, 10, to.Bits())
		}
		return data, nil
	}
}

// ListHook splits comma separated strings into slices and parses integers strictly.
func ListHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		StrictIntHook(),
	)
}

// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cast"

	"meltano-cli/pkg/plugin"
)

// jsonAPI produces compact JSON with sorted object keys so that structured
// values format identically across runs.
var jsonAPI = sonic.Config{
	SortMapKeys:      true,
	EscapeHTML:       false,
	CompactMarshaler: true,
}.Froze()

// FormatValue renders v the way it is exposed in the environment: strings
// verbatim, booleans as true/false, numbers in decimal and lists or maps as
// compact JSON. A nil value formats as the empty string.
func FormatValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToStringE(t)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		b, err := jsonAPI.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("format %T: %w", v, err)
		}
		return string(b), nil
	}
}

// ParseValue converts the string form of a setting back to its declared
// kind. It is the inverse of FormatValue for every kind.
func ParseValue(kind plugin.SettingKind, s string) (any, error) {
	switch kind {
	case plugin.SettingInteger:
		// Always base 10: "010" is ten, not an octal literal.
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a decimal integer: %w", err)
		}
		return n, nil
	case plugin.SettingBoolean:
		return parseBool(s)
	case plugin.SettingArray:
		var out []any
		if err := jsonAPI.UnmarshalFromString(s, &out); err != nil {
			return nil, fmt.Errorf("expected a JSON array: %w", err)
		}
		return out, nil
	case plugin.SettingObject:
		var out map[string]any
		if err := jsonAPI.UnmarshalFromString(s, &out); err != nil {
			return nil, fmt.Errorf("expected a JSON object: %w", err)
		}
		return out, nil
	default:
		return s, nil
	}
}

// parseBool accepts the spellings people put in dotenv files on top of the
// ones strconv understands.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off", "":
		return false, nil
	}
	return cast.ToBoolE(strings.TrimSpace(s))
}

// normalize brings a value from a structured layer to the declared kind, so
// that an integer typed as "8080" in YAML still resolves to a number.
func normalize(kind plugin.SettingKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case plugin.SettingInteger:
		if s, ok := v.(string); ok {
			return ParseValue(kind, s)
		}
		return cast.ToInt64E(v)
	case plugin.SettingBoolean:
		if s, ok := v.(string); ok {
			return parseBool(s)
		}
		return cast.ToBoolE(v)
	case plugin.SettingArray:
		if s, ok := v.(string); ok {
			return ParseValue(kind, s)
		}
		return cast.ToSliceE(v)
	case plugin.SettingObject:
		if s, ok := v.(string); ok {
			return ParseValue(kind, s)
		}
		return cast.ToStringMapE(v)
	case plugin.SettingString, plugin.SettingPassword:
		if _, ok := v.(string); ok {
			return v, nil
		}
		return FormatValue(v)
	default:
		return v, nil
	}
}

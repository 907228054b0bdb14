package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Values is a bound parameter or property map.
type Values map[string]cty.Value

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode converts the value of key into target, which must be a pointer to
// a Go value compatible with the value's type.
func (v Values) Decode(key string, target any) error {
	val, ok := v[key]
	if !ok {
		return fmt.Errorf("no value for %q", key)
	}
	if err := gocty.FromCtyValue(val, target); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

// Canonical renders the map as sorted "key=<json>" lines. Two maps with
// equal contents always render identically.
func (v Values) Canonical() string {
	var sb strings.Builder
	for _, k := range v.Keys() {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(CanonicalValue(v[k]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CanonicalValue renders a single value as JSON.
func CanonicalValue(val cty.Value) string {
	if val.IsNull() {
		return "null"
	}
	if !val.IsWhollyKnown() {
		return "<unknown>"
	}
	buf, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return val.GoString()
	}
	return string(buf)
}

// Display renders a value for humans: strings unquoted, everything else as
// canonical JSON.
func Display(val cty.Value) string {
	if !val.IsNull() && val.IsKnown() && val.Type().Equals(cty.String) {
		return val.AsString()
	}
	return CanonicalValue(val)
}

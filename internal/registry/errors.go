package registry

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// ParameterTypeError reports a supplied value whose type differs from the
// declared one.
type ParameterTypeError struct {
	Compiler string
	Kind     SchemaKind
	Key      string
	Want     cty.Type
	Got      cty.Value
	Loc      model.Location
}

func (e *ParameterTypeError) Error() string {
	got := "null"
	if !e.Got.IsNull() {
		got = fmt.Sprintf("%s %s", e.Got.Type().FriendlyName(), CanonicalValue(e.Got))
	}
	return fmt.Sprintf("%s parameter %q of compiler %q must be a %s, got %s",
		e.Kind, e.Key, e.Compiler, e.Want.FriendlyName(), got)
}

// Location implements model.Located.
func (e *ParameterTypeError) Location() model.Location { return e.Loc }

// MissingRequiredParameterError reports required parameters that were not
// supplied. Keys is sorted; the first entry is the one named in the message.
type MissingRequiredParameterError struct {
	Compiler string
	Kind     SchemaKind
	Keys     []string
}

func (e *MissingRequiredParameterError) Error() string {
	msg := fmt.Sprintf("compiler %q requires %s parameter %q", e.Compiler, e.Kind, e.Keys[0])
	if len(e.Keys) > 1 {
		msg += fmt.Sprintf(" (also missing: %s)", strings.Join(e.Keys[1:], ", "))
	}
	return msg
}

// SettingsError reports a problem with a manifest compiler block.
type SettingsError struct {
	Compiler string
	Loc      model.Location
	Err      error
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("compiler settings %q: %s", e.Compiler, e.Err)
}

func (e *SettingsError) Unwrap() error { return e.Err }

// Location implements model.Located.
func (e *SettingsError) Location() model.Location { return e.Loc }

package registry

import (
	"testing"

	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func spriteDescriptor() Descriptor {
	return Descriptor{
		Name:       "sprite",
		Extensions: []Extension{{Inputs: []string{".png"}, Outputs: []string{".bin"}}},
		TargetParams: Schema{
			Required: map[string]Required{
				"Width":  {Type: cty.Number},
				"Height": {Type: cty.Number},
			},
			Optional: map[string]Optional{
				"Trim":   {Type: cty.Bool, Default: cty.True},
				"Format": {Type: cty.String, Default: cty.StringVal("rgba")},
			},
		},
	}
}

func args(kv map[string]cty.Value) map[string]Arg {
	out := make(map[string]Arg, len(kv))
	for k, v := range kv {
		out[k] = Arg{Value: v, Location: model.Location{File: "m.content", Line: 4, Column: 12}}
	}
	return out
}

func TestBind(t *testing.T) {
	t.Run("defaults fill unsupplied optional keys", func(t *testing.T) {
		b, err := Bind(spriteDescriptor(), TargetLevel, args(map[string]cty.Value{
			"Width":  cty.NumberIntVal(64),
			"Height": cty.NumberIntVal(32),
			"Trim":   cty.False,
		}))
		require.NoError(t, err)
		assert.Empty(t, b.Unknown)
		assert.Equal(t, cty.False, b.Values["Trim"])
		assert.Equal(t, cty.StringVal("rgba"), b.Values["Format"])
		assert.Len(t, b.Values, 4)
	})

	t.Run("unknown key is reported and dropped", func(t *testing.T) {
		b, err := Bind(spriteDescriptor(), TargetLevel, args(map[string]cty.Value{
			"Width":  cty.NumberIntVal(64),
			"Height": cty.NumberIntVal(32),
			"Colour": cty.StringVal("red"),
			"Bogus":  cty.True,
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Bogus", "Colour"}, b.Unknown)
		assert.NotContains(t, b.Values, "Colour")
	})

	t.Run("missing required key fails", func(t *testing.T) {
		_, err := Bind(spriteDescriptor(), TargetLevel, args(map[string]cty.Value{
			"Trim": cty.True,
		}))
		var missing *MissingRequiredParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"Height", "Width"}, missing.Keys)
		assert.Equal(t, `compiler "sprite" requires target-level parameter "Height" (also missing: Width)`, err.Error())
	})

	t.Run("string for number is a type error", func(t *testing.T) {
		_, err := Bind(spriteDescriptor(), TargetLevel, args(map[string]cty.Value{
			"Width":  cty.StringVal("64"),
			"Height": cty.NumberIntVal(32),
		}))
		var typeErr *ParameterTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "Width", typeErr.Key)
		assert.Equal(t, "sprite", typeErr.Compiler)
		assert.Equal(t, 4, typeErr.Location().Line)
		assert.Contains(t, err.Error(), `must be a number, got string "64"`)
	})

	t.Run("null is a type error", func(t *testing.T) {
		_, err := Bind(spriteDescriptor(), TargetLevel, args(map[string]cty.Value{
			"Width":  cty.NullVal(cty.Number),
			"Height": cty.NumberIntVal(32),
		}))
		var typeErr *ParameterTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Contains(t, err.Error(), "got null")
	})

	t.Run("compiler-level schema is separate", func(t *testing.T) {
		b, err := Bind(spriteDescriptor(), CompilerLevel, args(map[string]cty.Value{
			"Width": cty.NumberIntVal(64),
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Width"}, b.Unknown)
		assert.Empty(t, b.Values)
	})

	t.Run("schema is not mutated", func(t *testing.T) {
		desc := spriteDescriptor()
		_, err := Bind(desc, TargetLevel, args(map[string]cty.Value{
			"Width":  cty.NumberIntVal(1),
			"Height": cty.NumberIntVal(1),
			"Format": cty.StringVal("a8"),
		}))
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("rgba"), desc.TargetParams.Optional["Format"].Default)
		assert.Len(t, desc.TargetParams.Optional, 2)
	})
}

func TestValues(t *testing.T) {
	v := Values{
		"b": cty.NumberIntVal(2),
		"a": cty.StringVal("x"),
		"c": cty.True,
	}
	assert.Equal(t, "a=\"x\"\nb=2\nc=true\n", v.Canonical())

	var n int
	require.NoError(t, v.Decode("b", &n))
	assert.Equal(t, 2, n)
	assert.Error(t, v.Decode("missing", &n))

	var s string
	assert.Error(t, v.Decode("b", &s), "numbers do not decode into strings")

	assert.Equal(t, "x", Display(v["a"]))
	assert.Equal(t, "2", Display(v["b"]))
}

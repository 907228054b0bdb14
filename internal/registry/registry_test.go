package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type stubCompiler struct {
	desc Descriptor
}

func (s *stubCompiler) Descriptor() Descriptor              { return s.desc }
func (s *stubCompiler) Compile(context.Context, *Job) error { return nil }

func stub(name string, exts ...Extension) *stubCompiler {
	return &stubCompiler{desc: Descriptor{Name: name, Extensions: exts}}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(stub("png", Extension{Inputs: []string{".svg"}, Outputs: []string{".png"}})))

	c, err := r.Lookup("png")
	require.NoError(t, err)
	assert.Equal(t, "png", c.Descriptor().Name)

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, ErrCompilerNotFound)

	err = r.Register(stub("png", Extension{Inputs: []string{".svg"}, Outputs: []string{".png"}}))
	assert.ErrorContains(t, err, "already registered")
	assert.Equal(t, []string{"png"}, r.Names())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_MustRegisterPanicsOnInvalidDescriptor(t *testing.T) {
	r := New()
	assert.Panics(t, func() { r.MustRegister(stub("")) })
}

func TestValidateDescriptor(t *testing.T) {
	pair := Extension{Inputs: []string{".a"}, Outputs: []string{".b"}}

	testCases := []struct {
		name    string
		desc    Descriptor
		wantErr string
	}{
		{
			name: "valid",
			desc: Descriptor{
				Name:       "ok",
				Extensions: []Extension{pair},
				TargetParams: Schema{
					Required: map[string]Required{"Width": {Type: cty.Number}},
					Optional: map[string]Optional{"Name": {Type: cty.String, Default: cty.StringVal("x")}},
				},
			},
		},
		{
			name:    "configurable with built-in extensions",
			desc:    Descriptor{Name: "c", ConfigurableExtensions: true, Extensions: []Extension{pair}},
			wantErr: "must not declare built-in extensions",
		},
		{
			name:    "no extensions",
			desc:    Descriptor{Name: "c"},
			wantErr: "at least one extension pair",
		},
		{
			name: "default of wrong type",
			desc: Descriptor{
				Name:       "c",
				Extensions: []Extension{pair},
				CompilerParams: Schema{
					Optional: map[string]Optional{"Indent": {Type: cty.Number, Default: cty.StringVal("2")}},
				},
			},
			wantErr: `compiler-level parameter "Indent": default must be a non-null number`,
		},
		{
			name: "non-primitive type",
			desc: Descriptor{
				Name:       "c",
				Extensions: []Extension{pair},
				TargetParams: Schema{
					Required: map[string]Required{"List": {Type: cty.List(cty.String)}},
				},
			},
			wantErr: "is not bool, number or string",
		},
		{
			name: "required and optional",
			desc: Descriptor{
				Name:       "c",
				Extensions: []Extension{pair},
				TargetParams: Schema{
					Required: map[string]Required{"A": {Type: cty.Bool}},
					Optional: map[string]Optional{"A": {Type: cty.Bool, Default: cty.False}},
				},
			},
			wantErr: "declared both required and optional",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDescriptor(tc.desc)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestExtension(t *testing.T) {
	ext := Extension{Inputs: []string{".pinboard", ".svg"}, Outputs: []string{".png"}}

	assert.True(t, ext.Matches([]string{"/a/b.svg", "/a/c.PINBOARD"}, []string{"/out/x.png"}))
	assert.True(t, ext.Matches([]string{"/a/b.svg", "/a/d.svg", "/a/c.pinboard"}, []string{"/out/x.png"}))
	assert.False(t, ext.Matches([]string{"/a/b.svg"}, []string{"/out/x.png"}))
	assert.False(t, ext.Matches([]string{"/a/b.svg", "/a/c.pinboard"}, []string{"/out/x.jpg"}))
	assert.Equal(t, "{.pinboard,.svg} -> {.png}", ext.String())

	assert.Equal(t, ".png", NormalizeExtension("PNG"))
	assert.Equal(t, ".json", NormalizeExtension(" .Json "))
}

package registry

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/contentgrid/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Arg is one manifest-supplied parameter value.
type Arg struct {
	Value    cty.Value
	Location model.Location
}

// Binding is the result of a successful Bind.
type Binding struct {
	// Values holds every declared parameter: the supplied ones and the
	// defaults of unsupplied optional ones.
	Values Values

	// Unknown lists supplied keys the schema does not declare, sorted.
	// They are dropped from Values; callers report them as warnings.
	Unknown []string
}

// Bind validates args against the descriptor's schema of the given kind.
// Types must match exactly; a string is never coerced into a number.
// Binding is all-or-nothing and never changes the descriptor.
func Bind(desc Descriptor, kind SchemaKind, args map[string]Arg) (*Binding, error) {
	schema := desc.Schema(kind)
	b := &Binding{Values: make(Values, len(args)+len(schema.Optional))}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		arg := args[key]

		var want cty.Type
		if req, ok := schema.Required[key]; ok {
			want = req.Type
		} else if opt, ok := schema.Optional[key]; ok {
			want = opt.Type
		} else {
			b.Unknown = append(b.Unknown, key)
			continue
		}

		if arg.Value.IsNull() || !arg.Value.IsKnown() || !arg.Value.Type().Equals(want) {
			return nil, &ParameterTypeError{
				Compiler: desc.Name,
				Kind:     kind,
				Key:      key,
				Want:     want,
				Got:      arg.Value,
				Loc:      arg.Location,
			}
		}
		b.Values[key] = arg.Value
	}

	var missing []string
	for key := range schema.Required {
		if _, ok := b.Values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingRequiredParameterError{Compiler: desc.Name, Kind: kind, Keys: missing}
	}

	for key, opt := range schema.Optional {
		if _, ok := b.Values[key]; !ok {
			b.Values[key] = opt.Default
		}
	}

	return b, nil
}

// ArgsFromAttributes evaluates manifest parameter attributes into Args.
func ArgsFromAttributes(attrs []*hcl.Attribute, ctx *hcl.EvalContext) (map[string]Arg, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	args := make(map[string]Arg, len(attrs))
	for _, attr := range attrs {
		val, valDiags := attr.Expr.Value(ctx)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		args[attr.Name] = Arg{Value: val, Location: model.LocationOf(attr.Expr.Range())}
	}
	return args, diags
}

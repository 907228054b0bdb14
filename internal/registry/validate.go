package registry

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

var primitiveTypes = []cty.Type{cty.Bool, cty.Number, cty.String}

func isPrimitive(t cty.Type) bool {
	for _, p := range primitiveTypes {
		if t.Equals(p) {
			return true
		}
	}
	return false
}

// validateDescriptor checks that a descriptor is internally consistent.
// All problems are reported at once.
func validateDescriptor(d Descriptor) error {
	var errs []string

	if d.Name == "" {
		errs = append(errs, "compiler name must not be empty")
	}
	if d.ConfigurableExtensions && len(d.Extensions) > 0 {
		errs = append(errs, "a compiler with configurable extensions must not declare built-in extensions")
	}
	if !d.ConfigurableExtensions && len(d.Extensions) == 0 {
		errs = append(errs, "a compiler must declare at least one extension pair")
	}
	for i, ext := range d.Extensions {
		if len(ext.Inputs) == 0 || len(ext.Outputs) == 0 {
			errs = append(errs, fmt.Sprintf("extension pair %d needs input and output extensions", i))
		}
	}

	for _, kind := range []SchemaKind{CompilerLevel, TargetLevel} {
		s := d.Schema(kind)
		for name, req := range s.Required {
			if !isPrimitive(req.Type) {
				errs = append(errs, fmt.Sprintf("%s parameter %q: type %s is not bool, number or string", kind, name, req.Type.FriendlyName()))
			}
			if _, dup := s.Optional[name]; dup {
				errs = append(errs, fmt.Sprintf("%s parameter %q is declared both required and optional", kind, name))
			}
		}
		for name, opt := range s.Optional {
			if !isPrimitive(opt.Type) {
				errs = append(errs, fmt.Sprintf("%s parameter %q: type %s is not bool, number or string", kind, name, opt.Type.FriendlyName()))
				continue
			}
			if opt.Default.IsNull() || !opt.Default.Type().Equals(opt.Type) {
				errs = append(errs, fmt.Sprintf("%s parameter %q: default must be a non-null %s", kind, name, opt.Type.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("compiler %q has an invalid descriptor:\n- %s", d.Name, strings.Join(errs, "\n- "))
	}
	return nil
}

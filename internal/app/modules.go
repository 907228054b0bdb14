package app

import (
	"github.com/specialistvlad/contentgrid/internal/registry"
	"github.com/specialistvlad/contentgrid/modules/filecopy"
	"github.com/specialistvlad/contentgrid/modules/pinboard"
	"github.com/specialistvlad/contentgrid/modules/yamljson"
)

// coreModules is the definitive list of all compilers that are compiled
// into the contentgrid binary.
var coreModules = []registry.Module{
	&filecopy.Module{},
	&pinboard.Module{},
	&yamljson.Module{},
}

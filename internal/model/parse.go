// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contentgrid/internal/hclutil"
)

var manifestSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "properties"},
		{Type: "compiler", LabelNames: []string{"name"}},
		{Type: "target", LabelNames: []string{"name"}},
	},
}

var compilerBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "extension"},
		{Type: "parameters"},
	},
}

var extensionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "inputs", Required: true},
		{Name: "outputs", Required: true},
	},
}

var targetBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "inputs", Required: true},
		{Name: "outputs", Required: true},
		{Name: "compiler"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "parameters"},
	},
}

// Loader parses manifest files. It remembers every file it has read so
// diagnostics can be rendered with source snippets.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files returns the sources read so far, keyed by filename.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load reads and parses the manifest at path.
func (l *Loader) Load(path string) (*Manifest, hcl.Diagnostics) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid manifest path",
			Detail:   fmt.Sprintf("Cannot resolve %q: %s.", path, err),
		}}
	}

	file, diags := l.parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeManifest(abs, file.Body, diags)
}

// Parse parses manifest source held in memory. filename is used for
// diagnostics and as the manifest path.
func (l *Loader) Parse(src []byte, filename string) (*Manifest, hcl.Diagnostics) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return decodeManifest(filename, file.Body, diags)
}

func decodeManifest(path string, body hcl.Body, diags hcl.Diagnostics) (*Manifest, hcl.Diagnostics) {
	content, contentDiags := body.Content(manifestSchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	m := &Manifest{Path: path}

	propsBlock, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "properties")
	diags = append(diags, blockDiags...)
	props, propDiags := decodeProperties(propsBlock)
	diags = append(diags, propDiags...)
	m.Properties = props

	seenCompilers := make(map[string]*hcl.Block)
	for _, block := range content.Blocks.OfType("compiler") {
		name := block.Labels[0]
		if prev, ok := seenCompilers[name]; ok {
			diags = append(diags, duplicateBlock("compiler", name, prev, block))
			continue
		}
		seenCompilers[name] = block

		settings, settingsDiags := decodeCompilerSettings(block)
		diags = append(diags, settingsDiags...)
		if settings != nil {
			m.Compilers = append(m.Compilers, settings)
		}
	}

	seenTargets := make(map[string]*hcl.Block)
	for _, block := range content.Blocks.OfType("target") {
		name := block.Labels[0]
		if prev, ok := seenTargets[name]; ok {
			diags = append(diags, duplicateBlock("target", name, prev, block))
			continue
		}
		seenTargets[name] = block

		target, targetDiags := decodeTarget(block, len(m.Targets))
		diags = append(diags, targetDiags...)
		if target != nil {
			m.Targets = append(m.Targets, target)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return m, diags
}

func decodeProperties(block *hcl.Block) ([]*Property, hcl.Diagnostics) {
	attrs, diags := hclutil.AttributesOf(block)
	if diags.HasErrors() {
		return nil, diags
	}

	var props []*Property
	for _, attr := range hclutil.SortedAttributes(attrs) {
		// Properties are literals; they are the inputs of the eval context
		// and cannot reference it.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		props = append(props, &Property{Name: attr.Name, Value: val, Range: attr.Range})
	}
	return props, diags
}

func decodeCompilerSettings(block *hcl.Block) (*CompilerSettings, hcl.Diagnostics) {
	content, diags := block.Body.Content(compilerBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	settings := &CompilerSettings{Name: block.Labels[0], DefRange: block.DefRange}

	for _, ext := range content.Blocks.OfType("extension") {
		decl, extDiags := decodeExtension(ext)
		diags = append(diags, extDiags...)
		if !extDiags.HasErrors() {
			settings.Extensions = append(settings.Extensions, decl)
		}
	}

	paramsBlock, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "parameters")
	diags = append(diags, blockDiags...)
	attrs, attrDiags := hclutil.AttributesOf(paramsBlock)
	diags = append(diags, attrDiags...)
	settings.Parameters = hclutil.SortedAttributes(attrs)

	return settings, diags
}

func decodeExtension(block *hcl.Block) (ExtensionDecl, hcl.Diagnostics) {
	decl := ExtensionDecl{Range: block.DefRange}

	content, diags := block.Body.Content(extensionBodySchema)
	if diags.HasErrors() {
		return decl, diags
	}

	inputs, inDiags := hclutil.DecodeStringList(content.Attributes["inputs"].Expr, nil)
	diags = append(diags, inDiags...)
	outputs, outDiags := hclutil.DecodeStringList(content.Attributes["outputs"].Expr, nil)
	diags = append(diags, outDiags...)

	if len(inputs) == 0 || len(outputs) == 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Empty extension declaration",
			Detail:   "An extension block needs at least one input and one output extension.",
			Subject:  block.DefRange.Ptr(),
		})
	}

	decl.Inputs = inputs
	decl.Outputs = outputs
	return decl, diags
}

func decodeTarget(block *hcl.Block, index int) (*RawTarget, hcl.Diagnostics) {
	content, diags := block.Body.Content(targetBodySchema)
	if diags.HasErrors() {
		return nil, diags
	}

	t := &RawTarget{
		Name:     block.Labels[0],
		Index:    index,
		Inputs:   content.Attributes["inputs"].Expr,
		Outputs:  content.Attributes["outputs"].Expr,
		DefRange: block.DefRange,
	}

	if attr, ok := content.Attributes["compiler"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &t.Compiler)...)
		t.CompilerRange = attr.Expr.Range()
	}

	paramsBlock, blockDiags := hclutil.FindUniqueBlock(content.Blocks, "parameters")
	diags = append(diags, blockDiags...)
	attrs, attrDiags := hclutil.AttributesOf(paramsBlock)
	diags = append(diags, attrDiags...)
	t.Parameters = hclutil.SortedAttributes(attrs)

	return t, diags
}

func duplicateBlock(kind, name string, first, dup *hcl.Block) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Duplicate %s %q", kind, name),
		Detail:   fmt.Sprintf("A %s named %q is already declared at %s.", kind, name, first.DefRange),
		Subject:  dup.DefRange.Ptr(),
	}
}

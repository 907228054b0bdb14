// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Manifest is a parsed content manifest.
type Manifest struct {
	// Path is the absolute path of the manifest file.
	Path string

	// Properties are the entries of the `properties` block in source order.
	Properties []*Property

	// Compilers are the `compiler` settings blocks in source order.
	Compilers []*CompilerSettings

	// Targets are the `target` blocks in source order.
	Targets []*RawTarget
}

// Property is one global property. Property values are literals.
type Property struct {
	Name  string
	Value cty.Value
	Range hcl.Range
}

// ExtensionDecl declares one extension pair inside a compiler block.
type ExtensionDecl struct {
	Inputs  []string
	Outputs []string
	Range   hcl.Range
}

// CompilerSettings carries manifest-supplied settings for one compiler.
type CompilerSettings struct {
	Name       string
	Extensions []ExtensionDecl
	Parameters []*hcl.Attribute
	DefRange   hcl.Range
}

// Location returns where the settings block is declared.
func (c *CompilerSettings) Location() Location {
	return LocationOf(c.DefRange)
}

// RawTarget is a target as written in the manifest, before resolution.
type RawTarget struct {
	Name string

	// Index is the position of the target in the manifest. It is the
	// tie-break used when ordering independent targets.
	Index int

	Inputs  hcl.Expression
	Outputs hcl.Expression

	// Compiler optionally names the compiler explicitly.
	Compiler      string
	CompilerRange hcl.Range

	Parameters []*hcl.Attribute
	DefRange   hcl.Range
}

// Location returns where the target block is declared.
func (t *RawTarget) Location() Location {
	return LocationOf(t.DefRange)
}

// Target returns the raw target with the given name, or nil.
func (m *Manifest) Target(name string) *RawTarget {
	for _, t := range m.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// CompilerSettingsFor returns the settings block for a compiler, or nil.
func (m *Manifest) CompilerSettingsFor(name string) *CompilerSettings {
	for _, c := range m.Compilers {
		if c.Name == name {
			return c
		}
	}
	return nil
}

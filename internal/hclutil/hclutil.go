// Package hclutil holds small helpers for walking HCL bodies that the
// hcl/v2 package does not provide directly.
package hclutil

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
)

// FindUniqueBlock returns the block of the given type, or nil when there is
// none. Every repeated occurrence produces an error diagnostic.
func FindUniqueBlock(blocks hcl.Blocks, blockType string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks.OfType(blockType) {
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", blockType),
				Detail:   fmt.Sprintf("Only one %q block is allowed here; the first one is at %s.", blockType, found.DefRange),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		found = block
	}

	return found, diags
}

// SortedAttributes returns attrs in source order.
func SortedAttributes(attrs hcl.Attributes) []*hcl.Attribute {
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Range, out[j].Range
		if ri.Filename != rj.Filename {
			return ri.Filename < rj.Filename
		}
		return ri.Start.Byte < rj.Start.Byte
	})
	return out
}

// DecodeStringList evaluates expr as a list of strings. A single string is
// accepted as a one-element list.
func DecodeStringList(expr hcl.Expression, ctx *hcl.EvalContext) ([]string, hcl.Diagnostics) {
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}

	if val.Type().Equals(cty.String) {
		var s string
		diags = append(diags, gohcl.DecodeExpression(expr, ctx, &s)...)
		return []string{s}, diags
	}

	var list []string
	diags = append(diags, gohcl.DecodeExpression(expr, ctx, &list)...)
	return list, diags
}

// AttributesOf returns the attributes of an optional block body, or nil.
func AttributesOf(block *hcl.Block) (hcl.Attributes, hcl.Diagnostics) {
	if block == nil {
		return nil, nil
	}
	return block.Body.JustAttributes()
}

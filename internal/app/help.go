package app

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/rodaine/table"
	"github.com/specialistvlad/contentgrid/internal/registry"
)

const usageWidth = 72

// writeCompilerUsage prints every compiler with its effective extensions
// and its parameters.
func (a *App) writeCompilerUsage(compilers []*registry.Configured) error {
	heading := color.New(color.FgCyan, color.Bold)
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	for _, c := range compilers {
		desc := c.Descriptor
		fmt.Fprintln(a.outW)
		heading.Fprintf(a.outW, "Compiler %q\n", desc.Name)
		if desc.Description != "" {
			fmt.Fprintln(a.outW, indent(wordwrap.WrapString(desc.Description, usageWidth), "  "))
		}

		fmt.Fprintln(a.outW, "  Extensions:")
		if len(c.Extensions) == 0 {
			fmt.Fprintln(a.outW, "    None")
		}
		for _, ext := range c.Extensions {
			fmt.Fprintf(a.outW, "    %s\n", ext)
		}
		if err := c.Usable(); err != nil {
			fmt.Fprintf(a.outW, "  Unusable until configured: %s\n", err)
		}

		rows := parameterRows(desc)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintln(a.outW, "  Parameters:")
		tbl := table.New("Name", "Level", "Type", "Default", "Description").
			WithHeaderFormatter(headerFmt).
			WithFirstColumnFormatter(columnFmt).
			WithWriter(a.outW).
			WithPadding(2)
		for _, row := range rows {
			tbl.AddRow(row...)
		}
		tbl.Print()
	}
	return nil
}

func parameterRows(desc registry.Descriptor) [][]any {
	var rows [][]any
	for _, kind := range []registry.SchemaKind{registry.CompilerLevel, registry.TargetLevel} {
		level := "target"
		if kind == registry.CompilerLevel {
			level = "compiler"
		}
		schema := desc.Schema(kind)
		for _, key := range schema.Keys() {
			if req, ok := schema.Required[key]; ok {
				rows = append(rows, []any{key, level, req.Type.FriendlyName(), "(required)", req.Description})
				continue
			}
			opt := schema.Optional[key]
			rows = append(rows, []any{key, level, opt.Type.FriendlyName(), registry.CanonicalValue(opt.Default), opt.Description})
		}
	}
	return rows
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

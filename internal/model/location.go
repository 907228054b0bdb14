// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Location points at a position inside a manifest file.
type Location struct {
	File   string
	Line   int
	Column int
}

// LocationOf converts the start of an hcl range into a Location.
func LocationOf(r hcl.Range) Location {
	return Location{File: r.Filename, Line: r.Start.Line, Column: r.Start.Column}
}

// IsZero reports whether the location carries no information.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0
}

// String renders the location as "file(line,col)".
func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s(%d,%d)", l.File, l.Line, l.Column)
}

// Located is implemented by errors that originate from a specific place in
// a manifest.
type Located interface {
	error
	Location() Location
}

// LocationFromError returns the most specific location found in err's
// tree. Joined errors are searched in order.
func LocationFromError(err error) (Location, bool) {
	loc := locate(err)
	return loc, !loc.IsZero()
}

func locate(err error) Location {
	if err == nil {
		return Location{}
	}

	var here Location
	if located, ok := err.(Located); ok {
		here = located.Location()
	}

	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if inner := locate(u.Unwrap()); !inner.IsZero() {
			return inner
		}
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if inner := locate(e); !inner.IsZero() {
				return inner
			}
		}
	}
	return here
}

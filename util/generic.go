// util/generic.go
// Copyright(c) 2025-2026 navprof contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"golang.org/x/exp/constraints"
)

// Select returns a if sel is true and b otherwise; this is a simple
// replacement for the ternary operator.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	}
	return b
}

// MapSlice returns the slice that is the result of applying the provided
// xform function to all of the elements of the given slice.
func MapSlice[F, T any](from []F, xform func(F) T) []T {
	to := make([]T, len(from))
	for i := range from {
		to[i] = xform(from[i])
	}
	return to
}

// LowerBound returns the index of the first element of s that is >= v,
// or len(s) if there is no such element.
func LowerBound[T constraints.Ordered](s []T, v T) int {
	for i, x := range s {
		if x >= v {
			return i
		}
	}
	return len(s)
}

// UpperBound returns the index of the first element of s that is > v, or
// len(s) if there is no such element.
func UpperBound[T constraints.Ordered](s []T, v T) int {
	for i, x := range s {
		if x > v {
			return i
		}
	}
	return len(s)
}

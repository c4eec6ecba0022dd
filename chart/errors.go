package chart

import (
	"errors"
	"fmt"
)

// ErrNoEntities is returned when a layout or render is requested for an empty list.
var ErrNoEntities = errors.New("no entities to render")

// NoEntitiesError reports an empty input list for the given scope.
type NoEntitiesError struct {
	Scope Scope
}

func (e *NoEntitiesError) Error() string {
	return fmt.Sprintf("%s render: %v", e.Scope, ErrNoEntities)
}

func (e *NoEntitiesError) Unwrap() error { return ErrNoEntities }

// InvalidEntityError reports an entity rejected during the bounding-box scan.
type InvalidEntityError struct {
	Index  int
	Symbol string
	Reason string
}

func (e *InvalidEntityError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("invalid entity at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid entity %q at index %d: %s", e.Symbol, e.Index, e.Reason)
}

// CanvasTooLargeError is returned before allocation when the computed canvas
// exceeds the configured per-side limit.
type CanvasTooLargeError struct {
	Width, Height int
	Max           int
}

func (e *CanvasTooLargeError) Error() string {
	return fmt.Sprintf("canvas %dx%d exceeds maximum dimension %d", e.Width, e.Height, e.Max)
}

// TessellationDegenerateError means there were too few distinct sites to
// build a Voronoi diagram. Renderers recover from it by skipping cell fill.
type TessellationDegenerateError struct {
	Sites int
}

func (e *TessellationDegenerateError) Error() string {
	return fmt.Sprintf("voronoi tessellation needs at least 2 distinct sites, got %d", e.Sites)
}

// IOWriteError wraps a failure to write a render artifact.
type IOWriteError struct {
	Path string
	Err  error
}

func (e *IOWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOWriteError) Unwrap() error { return e.Err }

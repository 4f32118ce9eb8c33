package bind

import "fmt"

// ConflictError reports a layout or naming disagreement, either between
// the two stages of a shader or between a resource and the semantic
// catalog. A shared buffer must have one offset table valid for both
// stages, so a conflict is fatal.
type ConflictError struct {
	// Resource is the block or sampler name.
	Resource string

	// Member is the conflicting member, if the conflict is member-level.
	Member string

	// Vertex and Fragment are the disagreeing values (offsets or sizes).
	Vertex   uint32
	Fragment uint32

	// Message describes the disagreement.
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("bind conflict: resource %q member %q: %s (vertex %d, fragment %d)",
			e.Resource, e.Member, e.Message, e.Vertex, e.Fragment)
	}
	return fmt.Sprintf("bind conflict: resource %q: %s", e.Resource, e.Message)
}

// UnresolvedError reports a discovered resource that matches neither a
// semantic name nor a caller-declared parameter. Binding resolution
// never drops a resource silently: an unbound slot would desynchronize
// the runtime's buffer layout from the shader's expectations.
type UnresolvedError struct {
	// Resource is the block or sampler name.
	Resource string

	// Member is the unmatched member for block resources; empty for samplers.
	Member string
}

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("bind: no semantic or declared parameter matches member %q of resource %q",
			e.Member, e.Resource)
	}
	return fmt.Sprintf("bind: no semantic or declared texture matches resource %q", e.Resource)
}

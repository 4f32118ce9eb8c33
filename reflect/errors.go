package reflect

import "fmt"

// ErrorKind categorizes reflection errors.
type ErrorKind uint8

const (
	// ErrMalformedModule indicates the instruction stream references
	// IDs or types that do not exist.
	ErrMalformedModule ErrorKind = iota

	// ErrMissingBinding indicates a resource has no Binding or
	// DescriptorSet decoration.
	ErrMissingBinding

	// ErrMissingOffset indicates a block member has no Offset decoration.
	ErrMissingOffset

	// ErrUnclassifiableType indicates a member type outside the
	// supported scalar/vector/matrix set.
	ErrUnclassifiableType

	// ErrBadLayout indicates member offsets violate the block layout
	// invariant, or a runtime array is not the last block member.
	ErrBadLayout
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedModule:
		return "MalformedModule"
	case ErrMissingBinding:
		return "MissingBinding"
	case ErrMissingOffset:
		return "MissingOffset"
	case ErrUnclassifiableType:
		return "UnclassifiableType"
	case ErrBadLayout:
		return "BadLayout"
	default:
		return "Unknown"
	}
}

// Error is a fatal reflection failure. An unrecognized resource is
// never skipped: dropping a binding would desynchronize the runtime's
// buffer layout from the shader's expectations.
type Error struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Resource names the offending resource, if known.
	Resource string

	// Message provides details.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("reflect %s: resource %q: %s", e.Kind, e.Resource, e.Message)
	}
	return fmt.Sprintf("reflect %s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, resource, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Resource: resource,
		Message:  fmt.Sprintf(format, args...),
	}
}

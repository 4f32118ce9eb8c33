package slang

import (
	"fmt"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/spirv"
)

// InvariantViolation reports an internal inconsistency between
// pipeline artifacts. It indicates a bug in a backend or in the
// caller's plumbing, never bad shader source.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

// Assemble pairs two backend outputs into a CompiledPair, checking
// that they belong together: same target, correct stages, and native
// locations covering every descriptor-backed entry of the binding map.
func Assemble(vertex, fragment *back.CompiledShader, bindings *bind.Map) (*CompiledPair, error) {
	if vertex.Target != fragment.Target {
		return nil, &InvariantViolation{Message: fmt.Sprintf(
			"stage targets differ: vertex %s, fragment %s", vertex.Target, fragment.Target)}
	}
	if vertex.Stage != spirv.StageVertex {
		return nil, &InvariantViolation{Message: fmt.Sprintf(
			"vertex slot holds a %s stage", vertex.Stage)}
	}
	if fragment.Stage != spirv.StageFragment {
		return nil, &InvariantViolation{Message: fmt.Sprintf(
			"fragment slot holds a %s stage", fragment.Stage)}
	}

	for _, entry := range bindings.Bindings() {
		if entry.Vertex != nil {
			if _, ok := vertex.Locations[entry.Slot.String()]; !ok {
				return nil, &InvariantViolation{Message: fmt.Sprintf(
					"vertex output has no location for %s", entry.Slot)}
			}
		}
		if entry.Fragment != nil {
			if _, ok := fragment.Locations[entry.Slot.String()]; !ok {
				return nil, &InvariantViolation{Message: fmt.Sprintf(
					"fragment output has no location for %s", entry.Slot)}
			}
		}
	}

	return &CompiledPair{Vertex: vertex, Fragment: fragment, Bindings: bindings}, nil
}

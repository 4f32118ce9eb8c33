// Package bind resolves reflected shader resources to stable semantic
// slots.
//
// The resolver cross-references both stages' resource inventories
// against the semantic registry and the caller's declared parameters,
// producing a Map from semantic slot to concrete per-stage locations.
// Construction is deterministic: identical inputs always yield
// identical slot-to-location assignments.
package bind

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/semantics"
	"github.com/gogpu/slang/spirv"
)

// FormatVersion is the serialized binding map format version. Decoding
// refuses any other version so a stale cache is never trusted.
const FormatVersion = 1

// Parameter is a caller-declared user uniform parameter, as supplied by
// the preprocessing collaborator's #pragma parameter lines.
type Parameter struct {
	Name    string
	Default float32
	Minimum float32
	Maximum float32
	Step    float32
}

// Location is a descriptor location of the resource containing a slot.
type Location struct {
	Set     uint32 `json:"set"`
	Binding uint32 `json:"binding"`
}

// Binding is the resolved assignment of one semantic slot.
type Binding struct {
	// Slot is the stable semantic identity.
	Slot semantics.Slot

	// Kind is the containing resource's kind.
	Kind reflect.ResourceKind

	// Stages is the stage visibility of the slot.
	Stages reflect.Visibility

	// Vertex and Fragment locate the containing resource per stage.
	// Nil for push constant slots and for stages the slot is absent from.
	Vertex   *Location
	Fragment *Location

	// Offset is the member byte offset within the containing block.
	// Zero for texture slots.
	Offset uint32

	// Size is the member byte size, or zero for texture slots.
	Size uint32
}

// Map is the resolved association between semantic slots and concrete
// locations for one shader. It is immutable after Resolve returns.
type Map struct {
	bindings map[string]*Binding
	order    []string

	vertexUBO    uint32
	fragmentUBO  uint32
	vertexPush   uint32
	fragmentPush uint32
}

// Lookup returns the binding for a slot, by slot identity. The result
// is a copy detached from the map and is free to mutate.
func (m *Map) Lookup(slot semantics.Slot) (Binding, bool) {
	b, ok := m.bindings[slot.String()]
	if !ok {
		return Binding{}, false
	}
	out := *b
	if b.Vertex != nil {
		loc := *b.Vertex
		out.Vertex = &loc
	}
	if b.Fragment != nil {
		loc := *b.Fragment
		out.Fragment = &loc
	}
	return out, ok
}

// Bindings returns all bindings in deterministic resolution order. The
// slice elements are the map's own entries and must not be mutated.
func (m *Map) Bindings() []*Binding {
	out := make([]*Binding, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.bindings[key])
	}
	return out
}

// Len returns the number of resolved slots.
func (m *Map) Len() int { return len(m.order) }

// UBOSize returns the uniform block byte size for a stage, for buffer
// allocation by the runtime.
func (m *Map) UBOSize(stage spirv.Stage) uint32 {
	if stage == spirv.StageFragment {
		return m.fragmentUBO
	}
	return m.vertexUBO
}

// PushSize returns the push constant block byte size for a stage.
func (m *Map) PushSize(stage spirv.Stage) uint32 {
	if stage == spirv.StageFragment {
		return m.fragmentPush
	}
	return m.vertexPush
}

func (m *Map) add(b *Binding) error {
	key := b.Slot.String()
	if existing, ok := m.bindings[key]; ok {
		return mergeBinding(existing, b)
	}
	m.bindings[key] = b
	m.order = append(m.order, key)
	return nil
}

// mergeBinding folds a second-stage sighting of a slot into an existing
// binding, requiring structural agreement.
func mergeBinding(into, from *Binding) error {
	if into.Kind != from.Kind {
		return &ConflictError{
			Resource: into.Slot.String(),
			Message:  fmt.Sprintf("slot bound as %s in one stage and %s in the other", into.Kind, from.Kind),
		}
	}
	if into.Offset != from.Offset || into.Size != from.Size {
		return &ConflictError{
			Resource: into.Slot.String(),
			Member:   into.Slot.String(),
			Vertex:   into.Offset,
			Fragment: from.Offset,
			Message:  "slot resolved at different offsets",
		}
	}
	if from.Vertex != nil {
		into.Vertex = from.Vertex
	}
	if from.Fragment != nil {
		into.Fragment = from.Fragment
	}
	into.Stages |= from.Stages
	return nil
}

// jsonMap is the serialized form of a Map.
type jsonMap struct {
	Version      int           `json:"version"`
	Bindings     []jsonBinding `json:"bindings"`
	VertexUBO    uint32        `json:"vertexUBOSize"`
	FragmentUBO  uint32        `json:"fragmentUBOSize"`
	VertexPush   uint32        `json:"vertexPushSize"`
	FragmentPush uint32        `json:"fragmentPushSize"`
}

type jsonBinding struct {
	Slot     string    `json:"slot"`
	Kind     uint8     `json:"kind"`
	Stages   uint8     `json:"stages"`
	Vertex   *Location `json:"vertex,omitempty"`
	Fragment *Location `json:"fragment,omitempty"`
	Offset   uint32    `json:"offset"`
	Size     uint32    `json:"size"`

	// Slot identity fields, needed to reconstruct the typed slot.
	SlotKind    uint8  `json:"slotKind"`
	SlotUnique  uint8  `json:"slotUnique,omitempty"`
	SlotTexture uint8  `json:"slotTexture,omitempty"`
	SlotIndex   uint32 `json:"slotIndex,omitempty"`
	SlotName    string `json:"slotName,omitempty"`
}

// MarshalJSON encodes the map in its stable, versioned on-disk form.
func (m *Map) MarshalJSON() ([]byte, error) {
	out := jsonMap{
		Version:      FormatVersion,
		VertexUBO:    m.vertexUBO,
		FragmentUBO:  m.fragmentUBO,
		VertexPush:   m.vertexPush,
		FragmentPush: m.fragmentPush,
	}
	for _, key := range m.order {
		b := m.bindings[key]
		out.Bindings = append(out.Bindings, jsonBinding{
			Slot:        key,
			Kind:        uint8(b.Kind),
			Stages:      uint8(b.Stages),
			Vertex:      b.Vertex,
			Fragment:    b.Fragment,
			Offset:      b.Offset,
			Size:        b.Size,
			SlotKind:    uint8(b.Slot.Kind),
			SlotUnique:  uint8(b.Slot.Unique),
			SlotTexture: uint8(b.Slot.Texture),
			SlotIndex:   b.Slot.Index,
			SlotName:    b.Slot.Name,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a serialized map, refusing unknown versions.
func (m *Map) UnmarshalJSON(data []byte) error {
	var in jsonMap
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("bind: decode map: %w", err)
	}
	if in.Version != FormatVersion {
		return fmt.Errorf("bind: unsupported map format version %d (want %d)", in.Version, FormatVersion)
	}
	*m = Map{
		bindings:     make(map[string]*Binding, len(in.Bindings)),
		vertexUBO:    in.VertexUBO,
		fragmentUBO:  in.FragmentUBO,
		vertexPush:   in.VertexPush,
		fragmentPush: in.FragmentPush,
	}
	for _, jb := range in.Bindings {
		b := &Binding{
			Slot: semantics.Slot{
				Kind:    semantics.SlotKind(jb.SlotKind),
				Unique:  semantics.Unique(jb.SlotUnique),
				Texture: semantics.Texture(jb.SlotTexture),
				Index:   jb.SlotIndex,
				Name:    jb.SlotName,
			},
			Kind:     reflect.ResourceKind(jb.Kind),
			Stages:   reflect.Visibility(jb.Stages),
			Vertex:   jb.Vertex,
			Fragment: jb.Fragment,
			Offset:   jb.Offset,
			Size:     jb.Size,
		}
		m.bindings[jb.Slot] = b
		m.order = append(m.order, jb.Slot)
	}
	return nil
}

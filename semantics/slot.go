package semantics

import (
	"fmt"
)

// SlotKind discriminates the identity space a Slot lives in.
type SlotKind uint8

const (
	// SlotUnique is a unique uniform semantic (MVP, FrameCount, ...).
	SlotUnique SlotKind = iota

	// SlotTexture is a semantic texture binding (Source, OriginalHistory3, ...).
	SlotTexture

	// SlotTextureSize is the vec4 size uniform paired with a texture semantic.
	SlotTextureSize

	// SlotParameter is a preset-declared float parameter, identified by name.
	SlotParameter

	// SlotUserTexture is a preset-declared lookup texture, identified by name.
	SlotUserTexture
)

// Slot is a stable, backend-independent binding identity. Slots are
// value types; two slots are the same binding iff they are equal.
// Downstream runtimes cache against Slot identity across recompiles,
// so a slot is never renumbered once assigned.
type Slot struct {
	Kind    SlotKind
	Unique  Unique  // valid when Kind == SlotUnique
	Texture Texture // valid when Kind is SlotTexture or SlotTextureSize
	Index   uint32  // texture semantic index
	Name    string  // valid when Kind is SlotParameter or SlotUserTexture
}

// UniqueSlot returns the slot for a unique uniform semantic.
func UniqueSlot(u Unique) Slot {
	return Slot{Kind: SlotUnique, Unique: u}
}

// TextureSlot returns the slot for a semantic texture binding.
func TextureSlot(t Texture, index uint32) Slot {
	return Slot{Kind: SlotTexture, Texture: t, Index: index}
}

// TextureSizeSlot returns the slot for a texture semantic's size uniform.
func TextureSizeSlot(t Texture, index uint32) Slot {
	return Slot{Kind: SlotTextureSize, Texture: t, Index: index}
}

// ParameterSlot returns the slot for a preset-declared float parameter.
func ParameterSlot(name string) Slot {
	return Slot{Kind: SlotParameter, Name: name}
}

// UserTextureSlot returns the slot for a preset-declared lookup texture.
func UserTextureSlot(name string) Slot {
	return Slot{Kind: SlotUserTexture, Name: name}
}

// String renders the slot's canonical identity, e.g. "MVP",
// "OriginalHistory#3", "SourceSize", "Param#scanline_weight".
func (s Slot) String() string {
	switch s.Kind {
	case SlotUnique:
		return s.Unique.UniformName()
	case SlotTexture:
		if s.Texture.Indexed() {
			return fmt.Sprintf("%s#%d", s.Texture.Prefix(), s.Index)
		}
		return s.Texture.Prefix()
	case SlotTextureSize:
		if s.Texture.Indexed() {
			return fmt.Sprintf("%sSize#%d", s.Texture.Prefix(), s.Index)
		}
		return s.Texture.Prefix() + "Size"
	case SlotParameter:
		return "Param#" + s.Name
	case SlotUserTexture:
		return "UserTexture#" + s.Name
	default:
		return "Invalid"
	}
}

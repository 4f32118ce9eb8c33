// Package semantics defines the canonical binding names understood by
// slang shader presets.
//
// A preset runtime addresses shader resources through stable semantic
// slots ("MVP", "FrameCount", "OriginalHistory#3", ...) rather than
// through any backend's set/binding/register numbering. The catalog of
// recognized names is fixed: unique uniforms that exist once per pass,
// and texture semantics that come with a paired size uniform.
//
// All tables in this package are immutable after process start and safe
// for concurrent reads.
package semantics

import (
	"strconv"
	"strings"
)

// Unique identifies a uniform semantic that occurs at most once per pass.
type Unique uint8

const (
	// MVP is the model-view-projection matrix (mat4, 64 bytes).
	MVP Unique = iota

	// Output is the size of the pass render target ("OutputSize", vec4).
	Output

	// FinalViewport is the size of the final viewport
	// ("FinalViewportSize", vec4).
	FinalViewport

	// FrameCount is the frame counter (uint, 4 bytes).
	FrameCount

	// FrameDirection is 1 for forward playback, -1 for rewind (int).
	FrameDirection
)

// UniformName returns the member name the semantic is declared under
// in shader source.
func (u Unique) UniformName() string {
	switch u {
	case MVP:
		return "MVP"
	case Output:
		return "OutputSize"
	case FinalViewport:
		return "FinalViewportSize"
	case FrameCount:
		return "FrameCount"
	case FrameDirection:
		return "FrameDirection"
	default:
		return "Unknown"
	}
}

// Size returns the byte size of the semantic's uniform value.
func (u Unique) Size() uint32 {
	switch u {
	case MVP:
		return 64
	case Output, FinalViewport:
		return 16
	default:
		return 4
	}
}

// Texture identifies a texture semantic. Indexed semantics address a
// whole family of bindings (OriginalHistory1, OriginalHistory2, ...).
type Texture uint8

const (
	// Original is the unfiltered input frame.
	Original Texture = iota

	// Source is the output of the previous pass.
	Source

	// OriginalHistory is a previous original frame, indexed by age.
	OriginalHistory

	// PassOutput is the output of an earlier pass, indexed by pass.
	PassOutput

	// PassFeedback is the previous-frame output of a pass, indexed by pass.
	PassFeedback

	// User is a preset-declared lookup texture, indexed by declaration order.
	User
)

// Prefix returns the semantic's name prefix as written in shader source.
func (t Texture) Prefix() string {
	switch t {
	case Original:
		return "Original"
	case Source:
		return "Source"
	case OriginalHistory:
		return "OriginalHistory"
	case PassOutput:
		return "PassOutput"
	case PassFeedback:
		return "PassFeedback"
	case User:
		return "User"
	default:
		return "Unknown"
	}
}

// Indexed reports whether the semantic carries an index suffix.
func (t Texture) Indexed() bool {
	switch t {
	case OriginalHistory, PassOutput, PassFeedback, User:
		return true
	default:
		return false
	}
}

// uniqueNames maps declared member names to unique semantics.
var uniqueNames = map[string]Unique{
	"MVP":               MVP,
	"OutputSize":        Output,
	"FinalViewportSize": FinalViewport,
	"FrameCount":        FrameCount,
	"FrameDirection":    FrameDirection,
}

// textureOrder is checked longest-prefix first so that
// "OriginalHistory3" resolves to OriginalHistory rather than Original.
var textureOrder = [...]Texture{
	OriginalHistory,
	Original,
	Source,
	PassOutput,
	PassFeedback,
	User,
}

// ParseUnique matches a declared uniform member name against the unique
// semantic catalog. Matching is exact and case-sensitive.
func ParseUnique(name string) (Unique, bool) {
	u, ok := uniqueNames[name]
	return u, ok
}

// ParseTexture matches a declared sampler name against the texture
// semantic catalog, e.g. "Source" or "OriginalHistory3".
func ParseTexture(name string) (Texture, uint32, bool) {
	for _, t := range textureOrder {
		rest, ok := strings.CutPrefix(name, t.Prefix())
		if !ok {
			continue
		}
		if rest == "" {
			if t.Indexed() {
				// "OriginalHistory" without an index is OriginalHistory0.
				return t, 0, true
			}
			return t, 0, true
		}
		if !t.Indexed() {
			continue
		}
		idx, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			continue
		}
		return t, uint32(idx), true
	}
	return 0, 0, false
}

// ParseTextureSize matches a declared uniform member name against the
// texture size catalog, e.g. "SourceSize" or "OriginalHistorySize3".
// The paired uniform is always a vec4 (width, height, 1/width, 1/height).
func ParseTextureSize(name string) (Texture, uint32, bool) {
	for _, t := range textureOrder {
		rest, ok := strings.CutPrefix(name, t.Prefix())
		if !ok {
			continue
		}
		rest, ok = strings.CutPrefix(rest, "Size")
		if !ok {
			continue
		}
		if rest == "" {
			return t, 0, true
		}
		if !t.Indexed() {
			continue
		}
		idx, err := strconv.ParseUint(rest, 10, 32)
		if err != nil {
			continue
		}
		return t, uint32(idx), true
	}
	return 0, 0, false
}

package semantics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUnique(t *testing.T) {
	tests := []struct {
		name string
		want Unique
		ok   bool
	}{
		{"MVP", MVP, true},
		{"OutputSize", Output, true},
		{"FinalViewportSize", FinalViewport, true},
		{"FrameCount", FrameCount, true},
		{"FrameDirection", FrameDirection, true},
		{"mvp", 0, false},
		{"Output", 0, false},
		{"FinalViewport", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		u, ok := ParseUnique(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, u, tt.name)
		}
	}
}

func TestUniqueSize(t *testing.T) {
	assert.Equal(t, uint32(64), MVP.Size())
	assert.Equal(t, uint32(16), Output.Size())
	assert.Equal(t, uint32(16), FinalViewport.Size())
	assert.Equal(t, uint32(4), FrameCount.Size())
	assert.Equal(t, uint32(4), FrameDirection.Size())
}

func TestParseTexture(t *testing.T) {
	tests := []struct {
		name    string
		want    Texture
		wantIdx uint32
		ok      bool
	}{
		{"Original", Original, 0, true},
		{"Source", Source, 0, true},
		{"OriginalHistory", OriginalHistory, 0, true},
		{"OriginalHistory3", OriginalHistory, 3, true},
		{"OriginalHistory12", OriginalHistory, 12, true},
		{"PassOutput0", PassOutput, 0, true},
		{"PassFeedback2", PassFeedback, 2, true},
		{"User4", User, 4, true},
		// Non-indexed semantics reject suffixes.
		{"Original3", 0, 0, false},
		{"Source1", 0, 0, false},
		// Size names belong to ParseTextureSize.
		{"SourceSize", 0, 0, false},
		{"OriginalHistorySize3", 0, 0, false},
		{"OriginalHistoryX", 0, 0, false},
		{"Unrelated", 0, 0, false},
	}
	for _, tt := range tests {
		tex, idx, ok := ParseTexture(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, tex, tt.name)
			assert.Equal(t, tt.wantIdx, idx, tt.name)
		}
	}
}

func TestParseTextureSize(t *testing.T) {
	tests := []struct {
		name    string
		want    Texture
		wantIdx uint32
		ok      bool
	}{
		{"OriginalSize", Original, 0, true},
		{"SourceSize", Source, 0, true},
		{"OriginalHistorySize", OriginalHistory, 0, true},
		{"OriginalHistorySize7", OriginalHistory, 7, true},
		{"PassOutputSize1", PassOutput, 1, true},
		{"PassFeedbackSize0", PassFeedback, 0, true},
		{"UserSize2", User, 2, true},
		{"SourceSize1", 0, 0, false},
		{"Source", 0, 0, false},
		{"OutputSize", 0, 0, false},
	}
	for _, tt := range tests {
		tex, idx, ok := ParseTextureSize(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, tex, tt.name)
			assert.Equal(t, tt.wantIdx, idx, tt.name)
		}
	}
}

func TestSlotString(t *testing.T) {
	assert.Equal(t, "MVP", UniqueSlot(MVP).String())
	assert.Equal(t, "FrameCount", UniqueSlot(FrameCount).String())
	assert.Equal(t, "Source", TextureSlot(Source, 0).String())
	assert.Equal(t, "OriginalHistory#3", TextureSlot(OriginalHistory, 3).String())
	assert.Equal(t, "SourceSize", TextureSizeSlot(Source, 0).String())
	assert.Equal(t, "PassOutputSize#2", TextureSizeSlot(PassOutput, 2).String())
	assert.Equal(t, "Param#scanline", ParameterSlot("scanline").String())
	assert.Equal(t, "UserTexture#LUT", UserTextureSlot("LUT").String())
}

func TestSlotEquality(t *testing.T) {
	assert.Equal(t, TextureSlot(OriginalHistory, 3), TextureSlot(OriginalHistory, 3))
	assert.NotEqual(t, TextureSlot(OriginalHistory, 3), TextureSlot(OriginalHistory, 4))
	assert.NotEqual(t, TextureSlot(Source, 0), TextureSizeSlot(Source, 0))
}

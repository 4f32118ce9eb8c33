package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/slang/back"
	"github.com/gogpu/slang/bind"
	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/semantics"
	"github.com/gogpu/slang/spirv"
)

// buildFragment emits a fragment stage with a uniform block at
// set 1 binding 3 and a combined image sampler at set 0 binding 2.
func buildFragment(t *testing.T) *spirv.Module {
	t.Helper()
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)

	st := b.AddTypeStruct(vec4)
	b.AddName(st, "Sizes")
	b.AddMemberName(st, 0, "SourceSize")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	ubo := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(ubo, spirv.DecorationDescriptorSet, 1)
	b.AddDecorate(ubo, spirv.DecorationBinding, 3)

	img := b.AddTypeImage2D(f32)
	si := b.AddTypeSampledImage(img)
	sptr := b.AddTypePointer(spirv.StorageClassUniformConstant, si)
	samp := b.AddVariable(sptr, spirv.StorageClassUniformConstant)
	b.AddName(samp, "Source")
	b.AddDecorate(samp, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(samp, spirv.DecorationBinding, 2)

	m, err := spirv.Parse(b.Build())
	require.NoError(t, err)
	return m
}

func resolveFragment(t *testing.T, m *spirv.Module) *bind.Map {
	t.Helper()
	resources, err := reflect.Reflect(m, spirv.StageFragment)
	require.NoError(t, err)
	bindings, err := bind.Resolve(nil, resources, nil, nil)
	require.NoError(t, err)
	return bindings
}

func TestCompileRenumbersDescriptors(t *testing.T) {
	m := buildFragment(t)
	bindings := resolveFragment(t, m)

	out, err := (&Backend{}).Compile(m, bindings, spirv.StageFragment, nil)
	require.NoError(t, err)
	assert.Equal(t, back.TargetSPIRV, out.Target)
	assert.Equal(t, spirv.StageFragment, out.Stage)

	// (0,2) sorts before (1,3), so the sampler becomes binding 0 and
	// the block binding 1, both in set 0.
	src := out.Locations[semantics.TextureSlot(semantics.Source, 0).String()]
	assert.Equal(t, back.LocationSetBinding, src.Kind)
	assert.Equal(t, uint32(0), src.Set)
	assert.Equal(t, uint32(0), src.Binding)

	size := out.Locations[semantics.TextureSizeSlot(semantics.Source, 0).String()]
	assert.Equal(t, uint32(0), size.Set)
	assert.Equal(t, uint32(1), size.Binding)

	// The rewritten module must itself parse and reflect cleanly.
	rewritten, err := spirv.Parse(out.Code)
	require.NoError(t, err)
	resources, err := reflect.Reflect(rewritten, spirv.StageFragment)
	require.NoError(t, err)
	for _, res := range resources {
		assert.Equal(t, uint32(0), res.Set)
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	m := buildFragment(t)
	bindings := resolveFragment(t, m)

	first, err := (&Backend{}).Compile(m, bindings, spirv.StageFragment, nil)
	require.NoError(t, err)

	rewritten, err := spirv.Parse(first.Code)
	require.NoError(t, err)
	again, err := (&Backend{}).Compile(rewritten, resolveFragment(t, rewritten), spirv.StageFragment, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Code, again.Code)
}

func TestCompileDoesNotMutateInput(t *testing.T) {
	m := buildFragment(t)
	before := m.Bytes()

	_, err := (&Backend{}).Compile(m, resolveFragment(t, m), spirv.StageFragment, nil)
	require.NoError(t, err)
	assert.Equal(t, before, m.Bytes())
}

func TestCompileRejectsUnknownDescriptor(t *testing.T) {
	m := buildFragment(t)
	bindings := resolveFragment(t, m)

	// A module stripped of its decorations cannot satisfy the map.
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddTypeVoid()
	empty, err := spirv.Parse(b.Build())
	require.NoError(t, err)

	_, err = (&Backend{}).Compile(empty, bindings, spirv.StageFragment, nil)
	var berr *back.Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, back.TargetSPIRV, berr.Target)
}

func TestRegistered(t *testing.T) {
	engine, err := back.For(back.TargetSPIRV)
	require.NoError(t, err)
	assert.Equal(t, back.TargetSPIRV, engine.Target())
}

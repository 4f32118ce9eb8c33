package reflect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/slang/spirv"
)

func parseModule(t *testing.T, b *spirv.ModuleBuilder) *spirv.Module {
	t.Helper()
	m, err := spirv.Parse(b.Build())
	require.NoError(t, err)
	return m
}

// buildUBO emits the canonical vertex uniform block:
//
//	layout(set = 0, binding = 0) uniform UBO {
//	    mat4 MVP;
//	    uint FrameCount;
//	} global;
func buildUBO(t *testing.T) *spirv.Module {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	mat4 := b.AddTypeMatrix(vec4, 4)
	u32 := b.AddTypeInt(32, false)

	st := b.AddTypeStruct(mat4, u32)
	b.AddName(st, "UBO")
	b.AddMemberName(st, 0, "MVP")
	b.AddMemberName(st, 1, "FrameCount")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.AddMemberDecorate(st, 0, spirv.DecorationColMajor)
	b.AddMemberDecorate(st, 0, spirv.DecorationMatrixStride, 16)
	b.AddMemberDecorate(st, 1, spirv.DecorationOffset, 64)

	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddName(v, "global")
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	return parseModule(t, b)
}

func TestReflectUniformBlock(t *testing.T) {
	resources, err := Reflect(buildUBO(t), spirv.StageVertex)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	res := resources[0]
	assert.Equal(t, UniformBuffer, res.Kind)
	assert.Equal(t, "UBO", res.Name)
	assert.Equal(t, uint32(0), res.Set)
	assert.Equal(t, uint32(0), res.Binding)
	assert.Equal(t, VisibleVertex, res.Stages)
	assert.Equal(t, uint32(80), res.Size)

	require.Len(t, res.Members, 2)

	mvp := res.Members[0]
	assert.Equal(t, "MVP", mvp.Name)
	assert.Equal(t, uint32(0), mvp.Offset)
	assert.Equal(t, uint32(64), mvp.Size)
	assert.Equal(t, ScalarFloat, mvp.Type.Scalar)
	assert.Equal(t, uint8(4), mvp.Type.VecSize)
	assert.Equal(t, uint8(4), mvp.Type.Columns)

	fc := res.Members[1]
	assert.Equal(t, "FrameCount", fc.Name)
	assert.Equal(t, uint32(64), fc.Offset)
	assert.Equal(t, uint32(4), fc.Size)
	assert.Equal(t, ScalarUint, fc.Type.Scalar)
	assert.Equal(t, uint8(1), fc.Type.VecSize)
}

func TestReflectPushConstant(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)

	st := b.AddTypeStruct(vec4, vec4)
	b.AddName(st, "Push")
	b.AddMemberName(st, 0, "SourceSize")
	b.AddMemberName(st, 1, "OutputSize")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
	b.AddMemberDecorate(st, 1, spirv.DecorationOffset, 16)

	ptr := b.AddTypePointer(spirv.StorageClassPushConstant, st)
	v := b.AddVariable(ptr, spirv.StorageClassPushConstant)
	b.AddName(v, "params")

	resources, err := Reflect(parseModule(t, b), spirv.StageFragment)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	res := resources[0]
	assert.Equal(t, PushConstant, res.Kind)
	assert.Equal(t, "Push", res.Name)
	assert.Equal(t, VisibleFragment, res.Stages)
	assert.Equal(t, uint32(32), res.Size)
	require.Len(t, res.Members, 2)
	assert.Equal(t, uint32(16), res.Members[1].Offset)
}

func TestReflectSampledImage(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	img := b.AddTypeImage2D(f32)
	si := b.AddTypeSampledImage(img)
	ptr := b.AddTypePointer(spirv.StorageClassUniformConstant, si)
	v := b.AddVariable(ptr, spirv.StorageClassUniformConstant)
	b.AddName(v, "Source")
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 2)

	resources, err := Reflect(parseModule(t, b), spirv.StageFragment)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	res := resources[0]
	assert.Equal(t, SampledImage, res.Kind)
	assert.Equal(t, "Source", res.Name)
	assert.Equal(t, uint32(2), res.Binding)
	assert.Empty(t, res.Members)
}

func TestReflectArrayMember(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	u32 := b.AddTypeInt(32, false)
	four := b.AddConstant(u32, 4)
	arr := b.AddTypeArray(vec4, four)
	b.AddDecorate(arr, spirv.DecorationArrayStride, 16)

	st := b.AddTypeStruct(arr)
	b.AddName(st, "UBO")
	b.AddMemberName(st, 0, "weights")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)

	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	resources, err := Reflect(parseModule(t, b), spirv.StageVertex)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	member := resources[0].Members[0]
	require.NotNil(t, member.Array)
	assert.Equal(t, uint32(4), member.Array.Len)
	assert.Equal(t, uint32(16), member.Array.Stride)
	assert.False(t, member.Array.Unsized)
	assert.Equal(t, uint32(64), member.Size)
	assert.Equal(t, uint32(64), resources[0].Size)
}

func TestReflectArrayMemberPaddedStride(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec3 := b.AddTypeVector(f32, 3)
	u32 := b.AddTypeInt(32, false)
	three := b.AddConstant(u32, 3)
	arr := b.AddTypeArray(vec3, three)
	b.AddDecorate(arr, spirv.DecorationArrayStride, 16)

	st := b.AddTypeStruct(arr)
	b.AddName(st, "UBO")
	b.AddMemberName(st, 0, "axes")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)

	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	resources, err := Reflect(parseModule(t, b), spirv.StageVertex)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	// A vec3 occupies 12 bytes but strides at 16. The member size
	// follows the stride, not the element size.
	member := resources[0].Members[0]
	require.NotNil(t, member.Array)
	assert.Equal(t, uint32(16), member.Array.Stride)
	assert.Equal(t, uint32(48), member.Size)
	assert.Equal(t, uint32(48), resources[0].Size)
}

// reflectSSBO reflects a storage buffer in the pre-1.3 encoding, a
// Uniform class variable whose struct carries BufferBlock.
func reflectSSBO(t *testing.T, runtimeLast bool) error {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	u32 := b.AddTypeInt(32, false)
	ra := b.AddTypeRuntimeArray(f32)
	b.AddDecorate(ra, spirv.DecorationArrayStride, 4)

	var st uint32
	if runtimeLast {
		st = b.AddTypeStruct(u32, ra)
	} else {
		st = b.AddTypeStruct(ra, u32)
	}
	b.AddName(st, "Histogram")
	b.AddDecorate(st, spirv.DecorationBufferBlock)
	if runtimeLast {
		b.AddMemberName(st, 0, "FrameCount")
		b.AddMemberName(st, 1, "bins")
		b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
		b.AddMemberDecorate(st, 1, spirv.DecorationOffset, 16)
	} else {
		b.AddMemberName(st, 0, "bins")
		b.AddMemberName(st, 1, "FrameCount")
		b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
		b.AddMemberDecorate(st, 1, spirv.DecorationOffset, 16)
	}

	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 3)

	resources, err := Reflect(parseModule(t, b), spirv.StageFragment)
	if err != nil {
		return err
	}
	require.Len(t, resources, 1)
	assert.Equal(t, StorageBuffer, resources[0].Kind)
	return nil
}

func TestReflectStorageBuffer(t *testing.T) {
	assert.NoError(t, reflectSSBO(t, true))
}

func TestReflectRuntimeArrayMustBeLast(t *testing.T) {
	err := reflectSSBO(t, false)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrBadLayout, rerr.Kind)
}

func TestReflectMissingBinding(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	st := b.AddTypeStruct(f32)
	b.AddName(st, "UBO")
	b.AddMemberName(st, 0, "FrameCount")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	b.AddVariable(ptr, spirv.StorageClassUniform)

	_, err := Reflect(parseModule(t, b), spirv.StageVertex)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrMissingBinding, rerr.Kind)
	assert.Equal(t, "UBO", rerr.Resource)
}

func TestReflectMissingOffset(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	st := b.AddTypeStruct(f32)
	b.AddName(st, "UBO")
	b.AddMemberName(st, 0, "FrameCount")
	b.AddDecorate(st, spirv.DecorationBlock)
	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	_, err := Reflect(parseModule(t, b), spirv.StageVertex)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrMissingOffset, rerr.Kind)
}

func TestReflectNonMonotonicOffsets(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	st := b.AddTypeStruct(f32, f32)
	b.AddName(st, "UBO")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 16)
	b.AddMemberDecorate(st, 1, spirv.DecorationOffset, 0)
	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	_, err := Reflect(parseModule(t, b), spirv.StageVertex)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrBadLayout, rerr.Kind)
}

func TestReflectNestedStructRejected(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	inner := b.AddTypeStruct(f32)
	st := b.AddTypeStruct(inner)
	b.AddName(st, "UBO")
	b.AddDecorate(st, spirv.DecorationBlock)
	b.AddMemberDecorate(st, 0, spirv.DecorationOffset, 0)
	ptr := b.AddTypePointer(spirv.StorageClassUniform, st)
	v := b.AddVariable(ptr, spirv.StorageClassUniform)
	b.AddDecorate(v, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(v, spirv.DecorationBinding, 0)

	_, err := Reflect(parseModule(t, b), spirv.StageVertex)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrUnclassifiableType, rerr.Kind)
}

func TestReflectIgnoresNonResourceVariables(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	ptr := b.AddTypePointer(spirv.StorageClassInput, vec4)
	b.AddVariable(ptr, spirv.StorageClassInput)
	out := b.AddTypePointer(spirv.StorageClassOutput, vec4)
	b.AddVariable(out, spirv.StorageClassOutput)

	resources, err := Reflect(parseModule(t, b), spirv.StageVertex)
	require.NoError(t, err)
	assert.Empty(t, resources)
}

func TestErrorMessage(t *testing.T) {
	err := newError(ErrMissingBinding, "UBO", "no binding on %q", "global")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ErrMissingBinding, rerr.Kind)
	assert.Contains(t, err.Error(), "UBO")
}

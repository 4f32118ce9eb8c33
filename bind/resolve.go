package bind

import (
	"fmt"
	"sort"

	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/semantics"
)

// merged is one resource after cross-stage reconciliation.
type merged struct {
	kind     reflect.ResourceKind
	name     string
	stages   reflect.Visibility
	vertex   *Location
	fragment *Location
	members  []reflect.Member
}

// Resolve cross-references both stages' resource inventories against
// the semantic registry and the caller-declared parameters and
// textures, producing the shader's binding map.
//
// Buffer block members are matched by member name; samplers by variable
// name. Every resource must resolve: an unmatched member or sampler is
// a fatal UnresolvedError. Resources shared by both stages must agree
// on member layout, and push constant blocks are merged member-wise
// across stages.
func Resolve(vertex, fragment []reflect.Resource, params []Parameter, textures []string) (*Map, error) {
	m := &Map{bindings: make(map[string]*Binding)}

	resources, err := mergeStages(vertex, fragment)
	if err != nil {
		return nil, err
	}

	paramNames := make(map[string]struct{}, len(params))
	for _, p := range params {
		paramNames[p.Name] = struct{}{}
	}
	textureNames := make(map[string]struct{}, len(textures))
	for _, t := range textures {
		textureNames[t] = struct{}{}
	}

	for _, res := range resources {
		switch res.kind {
		case reflect.SampledImage:
			if err := resolveSampler(m, res, textureNames); err != nil {
				return nil, err
			}
		default:
			if err := resolveBlock(m, res, paramNames); err != nil {
				return nil, err
			}
		}
	}

	for _, r := range vertex {
		switch r.Kind {
		case reflect.UniformBuffer:
			if r.Size > m.vertexUBO {
				m.vertexUBO = r.Size
			}
		case reflect.PushConstant:
			if r.Size > m.vertexPush {
				m.vertexPush = r.Size
			}
		}
	}
	for _, r := range fragment {
		switch r.Kind {
		case reflect.UniformBuffer:
			if r.Size > m.fragmentUBO {
				m.fragmentUBO = r.Size
			}
		case reflect.PushConstant:
			if r.Size > m.fragmentPush {
				m.fragmentPush = r.Size
			}
		}
	}

	return m, nil
}

// mergeStages reconciles the two inventories into one resource list.
// Order is deterministic: vertex resources in declaration order, then
// fragment-only resources in declaration order.
func mergeStages(vertex, fragment []reflect.Resource) ([]*merged, error) {
	byName := make(map[string]*reflect.Resource, len(fragment))
	for i := range fragment {
		byName[fragment[i].Name] = &fragment[i]
	}

	var out []*merged
	seen := make(map[string]struct{})

	for i := range vertex {
		v := &vertex[i]
		mr := &merged{
			kind:    v.Kind,
			name:    v.Name,
			stages:  v.Stages,
			members: v.Members,
		}
		if v.Kind != reflect.PushConstant {
			mr.vertex = &Location{Set: v.Set, Binding: v.Binding}
		}

		f, shared := byName[v.Name]
		if shared && f.Kind == v.Kind {
			seen[v.Name] = struct{}{}
			mr.stages |= f.Stages
			if f.Kind != reflect.PushConstant {
				mr.fragment = &Location{Set: f.Set, Binding: f.Binding}
			}
			if v.Kind == reflect.PushConstant {
				members, err := mergePushMembers(v, f)
				if err != nil {
					return nil, err
				}
				mr.members = members
			} else if err := requireIdenticalLayout(v, f); err != nil {
				return nil, err
			}
		}
		out = append(out, mr)
	}

	for i := range fragment {
		f := &fragment[i]
		if _, ok := seen[f.Name]; ok {
			continue
		}
		mr := &merged{
			kind:    f.Kind,
			name:    f.Name,
			stages:  f.Stages,
			members: f.Members,
		}
		if f.Kind != reflect.PushConstant {
			mr.fragment = &Location{Set: f.Set, Binding: f.Binding}
		}
		out = append(out, mr)
	}

	return out, nil
}

// requireIdenticalLayout enforces that a resource shared by both stages
// declares one offset table valid for both.
func requireIdenticalLayout(v, f *reflect.Resource) error {
	if len(v.Members) != len(f.Members) {
		return &ConflictError{
			Resource: v.Name,
			Vertex:   uint32(len(v.Members)),
			Fragment: uint32(len(f.Members)),
			Message:  "stages declare different member counts",
		}
	}
	for i := range v.Members {
		vm, fm := &v.Members[i], &f.Members[i]
		if vm.Name != fm.Name {
			return &ConflictError{
				Resource: v.Name,
				Member:   vm.Name,
				Message:  fmt.Sprintf("stages disagree on member name (%q vs %q)", vm.Name, fm.Name),
			}
		}
		if vm.Offset != fm.Offset {
			return &ConflictError{
				Resource: v.Name,
				Member:   vm.Name,
				Vertex:   vm.Offset,
				Fragment: fm.Offset,
				Message:  "stages disagree on member offset",
			}
		}
		if vm.Size != fm.Size || vm.Type != fm.Type || !arrayEqual(vm.Array, fm.Array) {
			return &ConflictError{
				Resource: v.Name,
				Member:   vm.Name,
				Vertex:   vm.Size,
				Fragment: fm.Size,
				Message:  "stages disagree on member type or size",
			}
		}
	}
	return nil
}

func arrayEqual(a, b *reflect.Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// mergePushMembers unions the push constant members of both stages into
// one logical block spanning both.
func mergePushMembers(v, f *reflect.Resource) ([]reflect.Member, error) {
	byName := make(map[string]*reflect.Member, len(v.Members))
	out := make([]reflect.Member, 0, len(v.Members)+len(f.Members))
	out = append(out, v.Members...)
	for i := range out {
		byName[out[i].Name] = &out[i]
	}

	for i := range f.Members {
		fm := &f.Members[i]
		vm, ok := byName[fm.Name]
		if !ok {
			out = append(out, *fm)
			continue
		}
		if vm.Offset != fm.Offset {
			return nil, &ConflictError{
				Resource: v.Name,
				Member:   fm.Name,
				Vertex:   vm.Offset,
				Fragment: fm.Offset,
				Message:  "push constant member declared at different offsets",
			}
		}
		if vm.Size != fm.Size || vm.Type != fm.Type {
			return nil, &ConflictError{
				Resource: v.Name,
				Member:   fm.Name,
				Vertex:   vm.Size,
				Fragment: fm.Size,
				Message:  "push constant member declared with different types",
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

// resolveBlock assigns a slot to every member of a buffer block.
func resolveBlock(m *Map, res *merged, paramNames map[string]struct{}) error {
	for i := range res.members {
		member := &res.members[i]

		var slot semantics.Slot
		switch {
		case matchUnique(member, &slot):
			if u := slot.Unique; member.Size != u.Size() {
				return &ConflictError{
					Resource: res.name,
					Member:   member.Name,
					Vertex:   member.Size,
					Fragment: u.Size(),
					Message:  fmt.Sprintf("semantic %s expects %d bytes", slot, u.Size()),
				}
			}
		case matchTextureSize(member, &slot):
			if member.Size != 16 {
				return &ConflictError{
					Resource: res.name,
					Member:   member.Name,
					Vertex:   member.Size,
					Fragment: 16,
					Message:  fmt.Sprintf("texture size semantic %s expects a vec4", slot),
				}
			}
		case matchParameter(member, paramNames, &slot):
			if member.Type.Scalar != reflect.ScalarFloat || member.Type.VecSize != 1 || member.Type.Columns != 0 {
				return &ConflictError{
					Resource: res.name,
					Member:   member.Name,
					Message:  "user parameters must be scalar floats",
				}
			}
		default:
			return &UnresolvedError{Resource: res.name, Member: member.Name}
		}

		if err := m.add(&Binding{
			Slot:     slot,
			Kind:     res.kind,
			Stages:   res.stages,
			Vertex:   res.vertex,
			Fragment: res.fragment,
			Offset:   member.Offset,
			Size:     member.Size,
		}); err != nil {
			return err
		}
	}
	return nil
}

func matchUnique(member *reflect.Member, slot *semantics.Slot) bool {
	u, ok := semantics.ParseUnique(member.Name)
	if !ok {
		return false
	}
	*slot = semantics.UniqueSlot(u)
	return true
}

func matchTextureSize(member *reflect.Member, slot *semantics.Slot) bool {
	t, idx, ok := semantics.ParseTextureSize(member.Name)
	if !ok {
		return false
	}
	*slot = semantics.TextureSizeSlot(t, idx)
	return true
}

func matchParameter(member *reflect.Member, paramNames map[string]struct{}, slot *semantics.Slot) bool {
	if _, ok := paramNames[member.Name]; !ok {
		return false
	}
	*slot = semantics.ParameterSlot(member.Name)
	return true
}

// resolveSampler assigns a slot to a combined image sampler by its
// declared variable name.
func resolveSampler(m *Map, res *merged, textureNames map[string]struct{}) error {
	var slot semantics.Slot
	if t, idx, ok := semantics.ParseTexture(res.name); ok {
		slot = semantics.TextureSlot(t, idx)
	} else if _, ok := textureNames[res.name]; ok {
		slot = semantics.UserTextureSlot(res.name)
	} else {
		return &UnresolvedError{Resource: res.name}
	}

	return m.add(&Binding{
		Slot:     slot,
		Kind:     reflect.SampledImage,
		Stages:   res.stages,
		Vertex:   res.vertex,
		Fragment: res.fragment,
	})
}

// Command spvdis inspects a SPIR-V binary the way the reflection
// pipeline sees it: header, entry points, and the reflected resource
// inventory. With -dis it also prints a compact instruction listing.
//
// Usage:
//
//	spvdis [options] <file.spv>
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gogpu/slang/reflect"
	"github.com/gogpu/slang/spirv"
)

var (
	dis      = flag.Bool("dis", false, "print the instruction listing")
	fragment = flag.Bool("frag", false, "reflect as a fragment stage (default: vertex)")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	m, err := spirv.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printHeader(m)
	printEntryPoints(m)
	printResources(m)
	if *dis {
		printListing(m)
	}
}

func printHeader(m *spirv.Module) {
	fmt.Printf("; SPIR-V %s\n", m.Version())
	fmt.Printf("; Generator: 0x%08X\n", m.Generator())
	fmt.Printf("; Bound: %d\n", m.Bound())
	fmt.Println()
}

func printEntryPoints(m *spirv.Module) {
	for _, ep := range m.EntryPoints() {
		fmt.Printf("entry point %s %q (%%%d)\n", ep.Model, ep.Name, ep.Function)
	}
	if len(m.EntryPoints()) > 0 {
		fmt.Println()
	}
}

func printResources(m *spirv.Module) {
	stage := spirv.StageVertex
	if *fragment {
		stage = spirv.StageFragment
	}
	resources, err := reflect.Reflect(m, stage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "; reflection failed: %v\n", err)
		return
	}
	if len(resources) == 0 {
		fmt.Println("no resources")
		return
	}

	for _, res := range resources {
		switch res.Kind {
		case reflect.PushConstant:
			fmt.Printf("%s %q  size=%d\n", res.Kind, res.Name, res.Size)
		case reflect.SampledImage:
			fmt.Printf("%s %q  set=%d binding=%d\n", res.Kind, res.Name, res.Set, res.Binding)
		default:
			fmt.Printf("%s %q  set=%d binding=%d size=%d\n",
				res.Kind, res.Name, res.Set, res.Binding, res.Size)
		}
		for _, member := range res.Members {
			fmt.Printf("  +%-4d %-24s %s\n", member.Offset, member.Name, memberType(member))
		}
	}
}

func memberType(m reflect.Member) string {
	t := m.Type.Scalar.String()
	if m.Type.Columns > 0 {
		t = fmt.Sprintf("%s%dx%d", t, m.Type.Columns, m.Type.VecSize)
	} else if m.Type.VecSize > 1 {
		t = fmt.Sprintf("%svec%d", t, m.Type.VecSize)
	}
	if m.Array != nil {
		if m.Array.Unsized {
			return fmt.Sprintf("%s[] stride=%d", t, m.Array.Stride)
		}
		return fmt.Sprintf("%s[%d] stride=%d", t, m.Array.Len, m.Array.Stride)
	}
	return t
}

// printListing emits a compact disassembly. Only the instructions the
// reflection pipeline models are decoded symbolically; everything else
// is shown as raw operand words.
func printListing(m *spirv.Module) {
	fmt.Println()
	for _, inst := range m.Instructions() {
		fmt.Println(formatInstruction(inst))
	}
}

func formatInstruction(inst spirv.Instruction) string {
	ops := inst.Operands
	switch inst.Opcode {
	case spirv.OpCapability:
		return fmt.Sprintf("OpCapability %d", ops[0])
	case spirv.OpMemoryModel:
		return fmt.Sprintf("OpMemoryModel %d %d", ops[0], ops[1])
	case spirv.OpEntryPoint:
		name, _ := spirv.DecodeString(ops, 2)
		return fmt.Sprintf("OpEntryPoint %s %%%d %q", spirv.ExecutionModel(ops[0]), ops[1], name)
	case spirv.OpName:
		name, _ := spirv.DecodeString(ops, 1)
		return fmt.Sprintf("OpName %%%d %q", ops[0], name)
	case spirv.OpMemberName:
		name, _ := spirv.DecodeString(ops, 2)
		return fmt.Sprintf("OpMemberName %%%d %d %q", ops[0], ops[1], name)
	case spirv.OpDecorate:
		s := fmt.Sprintf("OpDecorate %%%d %s", ops[0], spirv.Decoration(ops[1]))
		for _, w := range ops[2:] {
			s += fmt.Sprintf(" %d", w)
		}
		return s
	case spirv.OpMemberDecorate:
		s := fmt.Sprintf("OpMemberDecorate %%%d %d %s", ops[0], ops[1], spirv.Decoration(ops[2]))
		for _, w := range ops[3:] {
			s += fmt.Sprintf(" %d", w)
		}
		return s
	case spirv.OpTypePointer:
		return fmt.Sprintf("%%%d = OpTypePointer %s %%%d", ops[0], spirv.StorageClass(ops[1]), ops[2])
	case spirv.OpVariable:
		return fmt.Sprintf("%%%d = OpVariable %%%d %s", ops[1], ops[0], spirv.StorageClass(ops[2]))
	default:
		s := fmt.Sprintf("Op%d", uint16(inst.Opcode))
		for _, w := range ops {
			s += fmt.Sprintf(" %d", w)
		}
		return s
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: spvdis [options] <file.spv>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

// Command slangc compiles a slang shader preset to one or more
// targets, writing the per-stage outputs and the binding map.
//
// Usage:
//
//	slangc [options] <preset.toml>
//
// Examples:
//
//	slangc crt.toml                       # Compile to SPIR-V in .
//	slangc -target hlsl -out build crt.toml
//	slangc -target glsl,msl crt.toml      # Several targets at once
//	slangc -watch crt.toml                # Recompile on source change
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"

	"github.com/gogpu/slang"
	"github.com/gogpu/slang/back"
	_ "github.com/gogpu/slang/back/cross"
	_ "github.com/gogpu/slang/back/native"
	"github.com/gogpu/slang/glslang"
	"github.com/gogpu/slang/spirv"
)

var (
	targets = flag.String("target", "spirv", "comma-separated targets (spirv, glsl, hlsl, msl)")
	outDir  = flag.String("out", ".", "output directory")
	watch   = flag.Bool("watch", false, "recompile when the sources change")
	version = flag.Bool("version", false, "print version")
)

const slangcVersion = "0.1.0-dev"

var output = termenv.NewOutput(os.Stderr)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("slangc version %s\n", slangcVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no preset file specified")
		usage()
		os.Exit(1)
	}
	presetPath := args[0]

	wanted, err := parseTargets(*targets)
	if err != nil {
		fatal(err)
	}

	if err := compileOnce(presetPath, wanted); err != nil {
		if !*watch {
			fatal(err)
		}
		printError(err)
	}
	if *watch {
		if err := watchLoop(presetPath, wanted); err != nil {
			fatal(err)
		}
	}
}

func parseTargets(s string) ([]back.Target, error) {
	var out []back.Target
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := back.ParseTarget(name)
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no targets specified")
	}
	return out, nil
}

func compileOnce(presetPath string, targets []back.Target) error {
	p, err := loadPreset(presetPath)
	if err != nil {
		return err
	}

	vertex, err := os.ReadFile(p.Vertex)
	if err != nil {
		return err
	}
	fragment, err := os.ReadFile(p.Fragment)
	if err != nil {
		return err
	}

	compiler := glslang.NewCompiler()
	if compiler.ExtraArgs, err = p.extraArgs(); err != nil {
		return err
	}

	source := slang.ShaderSource{
		Name:       p.Name,
		Vertex:     string(vertex),
		Fragment:   string(fragment),
		Parameters: p.parameters(),
		Textures:   p.Textures,
	}
	compilation, err := slang.Reflect(source, &slang.CompileOptions{Compiler: compiler})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(presetPath), filepath.Ext(presetPath))
	for _, target := range targets {
		pair, err := compilation.Compile(target, nil)
		if err != nil {
			return err
		}
		if err := writePair(base, target, pair); err != nil {
			return err
		}
	}

	bindings, err := json.MarshalIndent(compilation.Bindings, "", "  ")
	if err != nil {
		return err
	}
	bindingsPath := filepath.Join(*outDir, base+".bindings.json")
	if err := os.WriteFile(bindingsPath, bindings, 0o644); err != nil {
		return err
	}

	success("compiled %s (%s)", p.Name, compilation.Fingerprint()[:12])
	return nil
}

func writePair(base string, target back.Target, pair *slang.CompiledPair) error {
	ext := targetExt(target)
	for _, shader := range []*back.CompiledShader{pair.Vertex, pair.Fragment} {
		stage := "vert"
		if shader.Stage == spirv.StageFragment {
			stage = "frag"
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s.%s.%s", base, stage, ext))
		if err := os.WriteFile(path, shader.Code, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func targetExt(target back.Target) string {
	switch target {
	case back.TargetSPIRV:
		return "spv"
	case back.TargetGLSL:
		return "glsl"
	case back.TargetHLSL:
		return "hlsl"
	case back.TargetMSL:
		return "metal"
	case back.TargetDXIL:
		return "dxil"
	}
	return "out"
}

// watchLoop recompiles whenever the preset or either stage source
// changes. Editors replace files rather than write in place, so the
// watch is on the containing directories and events are filtered by
// name.
func watchLoop(presetPath string, targets []back.Target) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	p, err := loadPreset(presetPath)
	if err != nil {
		return err
	}
	watched := map[string]struct{}{}
	for _, path := range []string{presetPath, p.Vertex, p.Fragment} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	info("watching for changes")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			if err := compileOnce(presetPath, targets); err != nil {
				printError(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(err)
		}
	}
}

func printError(err error) {
	msg := output.String("error: " + err.Error()).Foreground(output.Color("1"))
	fmt.Fprintln(os.Stderr, msg)
}

func success(format string, args ...any) {
	msg := output.String(fmt.Sprintf(format, args...)).Foreground(output.Color("2"))
	fmt.Fprintln(os.Stderr, msg)
}

func info(format string, args ...any) {
	fmt.Fprintln(os.Stderr, fmt.Sprintf(format, args...))
}

func fatal(err error) {
	printError(err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: slangc [options] <preset.toml>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  slangc crt.toml                  Compile to SPIR-V\n")
	fmt.Fprintf(os.Stderr, "  slangc -target hlsl crt.toml     Compile to HLSL\n")
	fmt.Fprintf(os.Stderr, "  slangc -watch crt.toml           Recompile on change\n")
}

// Package spirv reads and writes SPIR-V binary modules.
//
// SPIR-V is the standard intermediate representation produced by the
// front-end compiler and consumed by every cross-compilation backend.
// The package provides:
//
//   - Parse, which validates a binary blob and builds an instruction
//     index without interpreting function bodies
//   - Module, an immutable view of a parsed binary
//   - ModuleBuilder, an append-only binary emitter used by the native
//     backend and by tests that need modules without a front end
//
// A Module is never mutated after Parse; transformations re-emit a new
// word stream.
package spirv

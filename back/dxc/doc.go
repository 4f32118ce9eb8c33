// Package dxc lowers shaders to DXIL containers for D3D12. The engine
// first emits HLSL through spirv-cross, then compiles it with the dxc
// executable. It is compiled only under the dxil build tag since the
// toolchain is rarely installed outside Windows development setups.
package dxc

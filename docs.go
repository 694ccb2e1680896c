// Package gridc compiles device-kernel source text into an executable IR
// module and exposes the module's kernel entry points to a downstream
// execution engine.
//
// The central type is Program: one unit of kernel source plus, after a
// successful Build, its compiled module. Programs can also be created from
// an existing module, from a portable binary produced by a previous build,
// or by linking other programs together:
//
//	ctx := gridc.NewContext()
//	p := gridc.New(ctx, "kernel void scale(global float *v, float k){}")
//	if !p.Build("", nil) {
//	    log.Fatal(p.BuildLog())
//	}
//	k := p.CreateKernel("scale")
//
// The compiler front end is swappable through the frontend.Frontend
// interface; the built-in front end lives in frontend/clc.
package gridc

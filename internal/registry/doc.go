// Package registry is the compiler plugin contract of the build engine.
//
// A compiler implementation describes itself with a Descriptor: the extension
// pairs it can handle and two explicit parameter schemas, one for settings
// shared by every target using the compiler and one for per-target
// parameters. Modules add compilers to a Registry at startup.
//
// Before anything is built, the manifest's compiler settings are applied to
// the registry with Configure. The result is a Toolchain: every compiler with
// its effective extension pairs and its bound compiler-level parameters. The
// target resolver matches targets against the Toolchain and binds their
// parameters with Bind.
package registry

// Package neon is the arm64 mixing kernel, written with NEON intrinsics and
// called through cgo. It is only built for arm64 with cgo enabled and without
// the purego tag; everywhere else the package is empty and the mixer falls
// back to the portable kernels.
package neon

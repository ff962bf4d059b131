// Package version exposes build metadata of the laminator binary.
//
// Version, Commit and BuildTime are injected via Go ldflags at build time.
package version

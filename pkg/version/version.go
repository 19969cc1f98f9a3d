// Package version holds the build version, overridden at link time via
// -ldflags "-X github.com/ptscope/ptscope/pkg/version.Version=v1.2.3".
package version

// Version is the current build version.
var Version = "dev"

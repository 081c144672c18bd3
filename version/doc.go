// Package version reports build information for piholedash binaries.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/piholedash/version.Version=1.2.0" ./cmd/piholectl
//
// When they are not set, the VCS stamp of the Go build info is used.
package version

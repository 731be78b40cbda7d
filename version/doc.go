// Package version reports what build of wavechat is running.
//
// Version and BuildTime are set at link time; the commit and dirty flag
// come from the VCS stamp the Go toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/wavechat/version.Version=0.3.0" ./cmd/wavechat
package version

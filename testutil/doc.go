// Package testutil holds small helpers shared by wavechat package tests:
// starting a component with automatic cleanup and polling for conditions
// that settle on another goroutine.
package testutil

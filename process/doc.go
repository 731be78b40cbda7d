// Package process runs short-lived subprocesses such as the ffprobe audio
// probe, with context cancellation that signals the whole process group.
package process

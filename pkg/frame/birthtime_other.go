//go:build !darwin

package frame

import "os"

// FileTimestamp falls back to mtime where the platform exposes no
// creation time.
func FileTimestamp(info os.FileInfo) float64 {
	return float64(info.ModTime().UnixNano()) / 1e9
}

//go:build darwin

package frame

import (
	"os"
	"syscall"
)

// FileTimestamp prefers the file's creation time; capture frames keep
// their birthtime even when later tooling rewrites them.
func FileTimestamp(info os.FileInfo) float64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		b := st.Birthtimespec
		if b.Sec > 0 || b.Nsec > 0 {
			return float64(b.Sec) + float64(b.Nsec)/1e9
		}
	}
	return float64(info.ModTime().UnixNano()) / 1e9
}

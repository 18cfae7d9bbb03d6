package utils

import "fmt"

// FormatSize renders a byte count as a human-readable string ("250 MB",
// "1.50 GB"). Used by the cleanup report, export summary and status output.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1<<10:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	case bytes < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	default:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(1<<30))
	}
}

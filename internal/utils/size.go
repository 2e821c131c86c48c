package utils

import "fmt"

var fileSizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize converts a byte length into a human-readable string scaled at a 1024 divisor
// with one decimal place, for example "512.0 B" or "1.5 KB". Values beyond the gigabyte range
// stay expressed in GB.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	value := float64(bytes)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(fileSizeUnits)-1 {
		value /= 1024
		unitIndex++
	}
	return fmt.Sprintf("%.1f %s", value, fileSizeUnits[unitIndex])
}

// FormatByteCount renders an exact byte count such as "2097152 bytes".
func FormatByteCount(bytes int64) string {
	return fmt.Sprintf("%d bytes", bytes)
}

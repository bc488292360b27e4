package util

import "fmt"

// FormatPercent 0.756 -> "75.6%"；nil 显示为 "n/a"
func FormatPercent(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *value*100)
}

// FormatScore 保留两位小数；nil 显示为 "n/a"
func FormatScore(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *value)
}

// FormatBytes 1536 -> "1.5 KB"
func FormatBytes(size int64) string {
	v := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f TB", v)
}

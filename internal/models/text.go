package models

import "strings"

// SplitLines splits text on newlines and trims a trailing carriage return from each line
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

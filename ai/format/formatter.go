// Package format turns raw completion output into the numbered key-point list returned to clients.
package format

import (
	"strconv"
	"strings"
)

const (
	// MaxPoints caps the number of key points in a formatted summary.
	MaxPoints = 15

	// emphasisMarker is removed as a literal substring; other markup survives.
	emphasisMarker = "**"

	pointSeparator = "\n\n"
)

// Points returns the cleaned, non-empty lines of text, at most MaxPoints of them.
func Points(text string) []string {
	text = strings.ReplaceAll(text, emphasisMarker, "")

	points := make([]string, 0, MaxPoints)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) == MaxPoints {
			break
		}
	}
	return points
}

// KeyPoints renders text as "1. point\n\n2. point...".
// Returns "" when text holds no non-empty line.
func KeyPoints(text string) string {
	return Render(Points(text))
}

// Render numbers points from 1 and joins them with a blank line between entries.
func Render(points []string) string {
	var b strings.Builder
	for i, point := range points {
		if i > 0 {
			b.WriteString(pointSeparator)
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(point)
	}
	return b.String()
}

package domain

// palette — фиксированный набор визуально различимых цветов курсоров.
var palette = []string{
	"#FF6B6B", // red
	"#4ECDC4", // teal
	"#45B7D1", // blue
	"#96CEB4", // green
	"#FFEAA7", // yellow
	"#DDA0DD", // plum
	"#98D8C8", // mint
	"#F7DC6F", // gold
	"#BB8FCE", // purple
	"#85C1E9", // sky blue
}

// ColorFor maps a participant ID to one color from the palette. The mapping is
// pure: the same ID always yields the same color. The empty ID falls back to
// the first palette entry.
func ColorFor(id string) string {
	sum := 0
	for i := 0; i < len(id); i++ {
		sum += int(id[i])
	}
	return palette[sum%len(palette)]
}

package intake

import "strings"

const (
	manufacturerLabel = "Manufacturer"
	categoryLabel     = "Category"
	partNumberLabel   = "Part number"
	qrLabel           = "QR"
)

func commentLine(label, value string) string {
	return label + ": " + value
}

// mergeCommentLine replaces the first "label: ..." line of comment, or
// appends one. Other lines are kept as they are.
func mergeCommentLine(comment, label, value string) string {
	line := commentLine(label, value)
	if strings.TrimSpace(comment) == "" {
		return line
	}
	lines := strings.Split(comment, "\n")
	prefix := strings.ToLower(label) + ":"
	for i, l := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(l)), prefix) {
			lines[i] = line
			return strings.Join(lines, "\n")
		}
	}
	return strings.TrimRight(comment, "\n") + "\n" + line
}

package sink

import (
	"fmt"
	"strings"

	"vitalwatch/internal/models"
)

// Decoration is a pure formatting step applied to an alert's display
// string. Decorations carry no semantics: they wrap the rendered text
// and never touch the underlying alert.
type Decoration func(string) string

// Priority prefixes the display string with a priority label,
// e.g. "[PRIORITY: HIGH]".
func Priority(level string) Decoration {
	return func(s string) string {
		return fmt.Sprintf("[PRIORITY: %s] %s", strings.ToUpper(level), s)
	}
}

// Repeated appends a repetition indicator, e.g. "[Repeated x3]".
func Repeated(count int) Decoration {
	return func(s string) string {
		return fmt.Sprintf("%s [Repeated x%d]", s, count)
	}
}

// Render produces the human-readable display string for an alert and
// applies the decorations in order.
func Render(alert models.Alert, decorations ...Decoration) string {
	s := fmt.Sprintf("patient %s: %s", alert.PatientID, alert.Condition)
	for _, d := range decorations {
		s = d(s)
	}
	return s
}

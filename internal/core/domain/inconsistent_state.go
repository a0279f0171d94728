package domain

import "strings"

// InconsistentStateError reports that a state file written by the cache did not
// validate as up-to-date when read back immediately afterwards.
//
// It indicates a defect in the cache itself and is never handled internally.
type InconsistentStateError struct {
	StateFile string
	Reason    string
	Content   string
}

func (e *InconsistentStateError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	b.WriteString(": ")
	b.WriteString(e.StateFile)
	if e.Content != "" {
		b.WriteString("\n--- BEGIN ")
		b.WriteString(e.StateFile)
		b.WriteString("\n")
		b.WriteString(e.Content)
		if !strings.HasSuffix(e.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("--- END ")
		b.WriteString(e.StateFile)
	}
	return b.String()
}

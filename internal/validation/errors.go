package validation

import (
	"fmt"
	"strings"
)

// Source tells where a rejected document came from.
type Source string

const (
	SourceImport Source = "import"
	SourceLoad   Source = "load"
)

type Issue struct {
	Path    string
	Message string
}

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Source Source
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", is.Path, is.Message))
	}
	return fmt.Sprintf("invalid %s document: %s", e.Source, strings.Join(parts, "; "))
}

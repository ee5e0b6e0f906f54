package rag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

const (
	MetaTitle  = "Title"
	MetaUID    = "uid"
	MetaSource = "source"
)

var ErrMissingField = errors.New("missing metadata field")

// MissingFieldError names the metadata key Normalize needed but did not find.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %q", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Normalize makes the title a plain string and points "source" at the
// document uid. A structured title (markup split into parts) is flattened by
// joining its values with a space, in key order. The document is left
// untouched when a required key is missing.
func Normalize(doc *schema.Document) error {
	title, ok := doc.Metadata[MetaTitle]
	if !ok {
		return &MissingFieldError{Field: MetaTitle}
	}
	uid, ok := doc.Metadata[MetaUID]
	if !ok {
		return &MissingFieldError{Field: MetaUID}
	}

	switch t := title.(type) {
	case map[string]any:
		doc.Metadata[MetaTitle] = joinValues(t)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = v
		}
		doc.Metadata[MetaTitle] = joinValues(m)
	}
	doc.Metadata[MetaSource] = uid

	return nil
}

// NormalizeAll normalizes docs in place and stops at the first failure.
func NormalizeAll(docs []schema.Document) error {
	for i := range docs {
		if err := Normalize(&docs[i]); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	return nil
}

func joinValues(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprint(m[k]))
	}
	return strings.Join(parts, " ")
}

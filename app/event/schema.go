package event

import "fmt"

// SchemaError names the first missing or malformed field found in a
// document. A document failing validation is never written.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s %s", e.Field, e.Reason)
}

// Validate is a minimal structural gate run before a document reaches
// storage. It does not validate business semantics (e.g. that start parses
// as a real date).
func Validate(doc *Document) error {
	if doc == nil {
		return &SchemaError{Field: "document", Reason: "is nil"}
	}
	if doc.Meta.Sport == "" {
		return &SchemaError{Field: "meta.sport", Reason: "is empty"}
	}
	if doc.Meta.Name == "" {
		return &SchemaError{Field: "meta.name", Reason: "is empty"}
	}
	if doc.Items == nil {
		return &SchemaError{Field: "items", Reason: "must be a list"}
	}

	for i, it := range doc.Items {
		for _, f := range []struct{ name, val string }{
			{"id", it.ID},
			{"sport", it.Sport},
			{"league", it.League},
			{"season", it.Season},
			{"start", it.Start},
		} {
			if f.val == "" {
				return &SchemaError{
					Field:  fmt.Sprintf("items[%d].%s", i, f.name),
					Reason: "is empty",
				}
			}
		}
		if it.Source.ID == "" {
			return &SchemaError{
				Field:  fmt.Sprintf("items[%d].source.id", i),
				Reason: "is empty",
			}
		}
	}

	return nil
}

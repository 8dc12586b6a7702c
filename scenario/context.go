package scenario

import "fmt"

// Field names a value collected from the user during a scenario run.
// The set is closed so that templates and validators can be checked at
// configuration load time instead of failing on first use.
type Field string

const (
	// FieldName is the registrant's display name.
	FieldName Field = "name"
	// FieldEmail is the registrant's email address.
	FieldEmail Field = "email"
)

// KnownFields lists every field a step may collect or reference.
func KnownFields() []Field {
	return []Field{FieldName, FieldEmail}
}

// Context carries the data collected across the steps of one scenario run.
// It replaces a free-form map so that an unknown field is an error, not a
// silently ignored key.
type Context struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Set stores a collected value under the given field.
func (c *Context) Set(f Field, value string) error {
	switch f {
	case FieldName:
		c.Name = value
	case FieldEmail:
		c.Email = value
	default:
		return fmt.Errorf("%w: unknown context field %q", ErrConfig, f)
	}
	return nil
}

// Value returns the collected value for the field and whether the field is known.
// A known but not yet collected field yields an empty string.
func (c *Context) Value(f Field) (string, bool) {
	switch f {
	case FieldName:
		return c.Name, true
	case FieldEmail:
		return c.Email, true
	default:
		return "", false
	}
}

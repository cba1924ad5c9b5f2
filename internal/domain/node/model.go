package node

import "time"

// Base field names shared by every content type.
const (
	FieldTitle  = "title"
	FieldType   = "type"
	FieldOwner  = "uid"
	FieldStatus = "status"
	FieldBody   = "body"
)

// DefaultType is the content type used when the caller does not name one.
const DefaultType = "page"

// Node is a content record persisted in node storage.
type Node struct {
	ID         uint
	UUID       string
	RevisionID uint
	Type       string
	Title      string
	OwnerID    uint
	Published  bool
	Body       *Body
	Fields     map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Body is the formatted text value of a body field.
type Body struct {
	Value  string
	Format string
}

// Values is a partial field map keyed by field name.
type Values map[string]any

// Has reports whether the caller supplied a value for name, even a zero one.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Clone returns a shallow copy so defaults can be added without touching the caller's map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

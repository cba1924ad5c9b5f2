package node

import "slices"

// FieldKind identifies the storage shape of a configured field.
type FieldKind string

const (
	KindText          FieldKind = "text"
	KindFormattedText FieldKind = "formatted_text"
	KindInteger       FieldKind = "integer"
	KindBoolean       FieldKind = "boolean"
)

// Valid reports whether the kind is one the storage layer understands.
func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindFormattedText, KindInteger, KindBoolean:
		return true
	default:
		return false
	}
}

// FieldDefinition describes a configured field attached to a content type.
type FieldDefinition struct {
	Name string
	Kind FieldKind
}

// ContentType is the schema descriptor for a node bundle.
type ContentType struct {
	MachineName        string
	Label              string
	PublishedByDefault bool
	Fields             []FieldDefinition
}

var baseFields = []string{FieldTitle, FieldType, FieldOwner, FieldStatus}

// BaseFields lists the fields every content type carries.
func BaseFields() []string {
	return slices.Clone(baseFields)
}

// IsBaseField reports whether name is one of the fields every content type carries.
func IsBaseField(name string) bool {
	return slices.Contains(baseFields, name)
}

// HasField reports whether nodes of this type can hold a value for name.
func (c ContentType) HasField(name string) bool {
	if IsBaseField(name) {
		return true
	}
	_, ok := c.Field(name)
	return ok
}

// Field returns the configured field definition for name.
func (c ContentType) Field(name string) (FieldDefinition, bool) {
	for _, field := range c.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

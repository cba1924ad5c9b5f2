package node

import "context"

// Storage is the persistence and query service for nodes.
type Storage interface {
	// ResetCache drops cached entities for ids, or every cached entity when ids is empty.
	ResetCache(ids ...uint)
	// LoadByProperties returns nodes whose properties equal the given values.
	// The order of the result is not defined.
	LoadByProperties(ctx context.Context, properties map[string]any) ([]*Node, error)
	// CreateDraft builds an unsaved node from values, validated against the content type schema.
	CreateDraft(ctx context.Context, values Values) (Draft, error)
}

// Draft is a node under construction that has not been persisted yet.
type Draft interface {
	Schema() ContentType
	HasField(name string) bool
	Set(name string, value any) error
	Save(ctx context.Context) (*Node, error)
}

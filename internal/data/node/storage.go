package node

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainnode "nodefixture/app/internal/domain/node"
)

// propertyColumns maps the properties nodes can be looked up by to their columns.
var propertyColumns = map[string]string{
	domainnode.FieldTitle:  "title",
	domainnode.FieldType:   "type",
	domainnode.FieldOwner:  "owner_id",
	domainnode.FieldStatus: "status",
	"uuid":                 "uuid",
}

// Storage persists nodes with Gorm and keeps loaded nodes in a read-through cache.
type Storage struct {
	db     *gorm.DB
	logger *logrus.Logger

	mu    sync.RWMutex
	cache map[uint]*domainnode.Node
}

var _ domainnode.Storage = (*Storage)(nil)

// NewStorage constructs Gorm-backed node storage.
func NewStorage(db *gorm.DB, logger *logrus.Logger) (*Storage, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Storage{
		db:     db,
		logger: logger,
		cache:  make(map[uint]*domainnode.Node),
	}, nil
}

// ResetCache drops the cached entries for ids, or the whole cache when no ids are given.
func (s *Storage) ResetCache(ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		clear(s.cache)
		return
	}
	for _, id := range ids {
		delete(s.cache, id)
	}
}

// Load returns the node with id or nil when it does not exist.
func (s *Storage) Load(ctx context.Context, id uint) (*domainnode.Node, error) {
	nodes, err := s.loadMultiple(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}

// LoadByProperties returns every node whose properties equal the supplied values.
// Matching ids come from the database; the entities themselves come through the cache.
func (s *Storage) LoadByProperties(ctx context.Context, properties map[string]any) ([]*domainnode.Node, error) {
	conditions := make(map[string]any, len(properties))
	for _, name := range slices.Sorted(maps.Keys(properties)) {
		column, ok := propertyColumns[name]
		if !ok {
			return nil, eris.Errorf("nodes cannot be looked up by %q", name)
		}
		value, err := coerceProperty(name, properties[name])
		if err != nil {
			return nil, err
		}
		conditions[column] = value
	}

	var ids []uint
	query := s.db.WithContext(ctx).Model(&NodeRecord{})
	if len(conditions) > 0 {
		query = query.Where(conditions)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		s.logError(logrus.Fields{"properties": conditions}, err, "querying nodes by properties")
		return nil, eris.Wrap(err, "querying nodes by properties")
	}

	return s.loadMultiple(ctx, ids)
}

// CreateDraft builds an unsaved node of the content type named in values.
func (s *Storage) CreateDraft(ctx context.Context, values domainnode.Values) (domainnode.Draft, error) {
	typeName, err := coerceText(domainnode.FieldType, values[domainnode.FieldType])
	if err != nil {
		return nil, err
	}
	if typeName == "" {
		return nil, eris.New("content type is required")
	}

	schema, err := s.ContentType(ctx, typeName)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, eris.Errorf("unknown content type: %s", typeName)
	}

	d := newDraft(s, *schema)
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if name == domainnode.FieldType {
			continue
		}
		if err := d.Set(name, values[name]); err != nil {
			return nil, eris.Wrapf(err, "building %s draft", typeName)
		}
	}

	return d, nil
}

func (s *Storage) loadMultiple(ctx context.Context, ids []uint) ([]*domainnode.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[uint]*domainnode.Node, len(ids))
	var missing []uint

	s.mu.RLock()
	for _, id := range ids {
		if cached, ok := s.cache[id]; ok {
			found[id] = cached
		} else {
			missing = append(missing, id)
		}
	}
	s.mu.RUnlock()

	if len(missing) > 0 {
		var records []NodeRecord
		if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&records).Error; err != nil {
			s.logError(logrus.Fields{"ids": missing}, err, "loading nodes")
			return nil, eris.Wrap(err, "loading nodes")
		}

		s.mu.Lock()
		for i := range records {
			loaded, err := toDomainNode(&records[i])
			if err != nil {
				s.mu.Unlock()
				s.logError(logrus.Fields{"node_id": records[i].ID}, err, "decoding node")
				return nil, eris.Wrapf(err, "decoding node: %d", records[i].ID)
			}
			s.cache[loaded.ID] = loaded
			found[loaded.ID] = loaded
		}
		s.mu.Unlock()
	}

	nodes := make([]*domainnode.Node, 0, len(found))
	for _, id := range ids {
		if loaded, ok := found[id]; ok {
			nodes = append(nodes, cloneNode(loaded))
		}
	}

	return nodes, nil
}

func (s *Storage) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil || err == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func coerceProperty(name string, value any) (any, error) {
	switch name {
	case domainnode.FieldOwner:
		return coerceID(name, value)
	case domainnode.FieldStatus:
		return coerceBool(name, value)
	default:
		return coerceText(name, value)
	}
}

func toDomainNode(record *NodeRecord) (*domainnode.Node, error) {
	fields, err := decodeFields(record.Fields)
	if err != nil {
		return nil, err
	}

	n := &domainnode.Node{
		ID:         record.ID,
		UUID:       record.UUID,
		RevisionID: record.RevisionID,
		Type:       record.Type,
		Title:      record.Title,
		OwnerID:    record.OwnerID,
		Published:  record.Status,
		Fields:     fields,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if record.BodyValue != nil {
		n.Body = &domainnode.Body{Value: *record.BodyValue}
		if record.BodyFormat != nil {
			n.Body.Format = *record.BodyFormat
		}
	}

	return n, nil
}

func cloneNode(n *domainnode.Node) *domainnode.Node {
	out := *n
	if n.Body != nil {
		body := *n.Body
		out.Body = &body
	}
	out.Fields = maps.Clone(n.Fields)
	if out.Fields == nil {
		out.Fields = make(map[string]any)
	}
	return &out
}

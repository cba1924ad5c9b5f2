package node

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainnode "nodefixture/app/internal/domain/node"
)

const initialRevisionLog = "Created"

type draft struct {
	storage *Storage
	schema  domainnode.ContentType
	node    domainnode.Node
	saved   bool
}

var _ domainnode.Draft = (*draft)(nil)

func newDraft(storage *Storage, schema domainnode.ContentType) *draft {
	return &draft{
		storage: storage,
		schema:  schema,
		node: domainnode.Node{
			Type:      schema.MachineName,
			Published: schema.PublishedByDefault,
			Fields:    make(map[string]any),
		},
	}
}

func (d *draft) Schema() domainnode.ContentType {
	return d.schema
}

func (d *draft) HasField(name string) bool {
	return d.schema.HasField(name)
}

// Set assigns a field value, coercing it to the field's storage shape.
// A nil value clears optional fields.
func (d *draft) Set(name string, value any) error {
	switch name {
	case domainnode.FieldTitle:
		title, err := coerceText(name, value)
		if err != nil {
			return err
		}
		d.node.Title = title
	case domainnode.FieldType:
		typeName, err := coerceText(name, value)
		if err != nil {
			return err
		}
		if typeName != d.schema.MachineName {
			return eris.Errorf("draft of type %s cannot change type to %s", d.schema.MachineName, typeName)
		}
	case domainnode.FieldOwner:
		owner, err := coerceID(name, value)
		if err != nil {
			return err
		}
		d.node.OwnerID = owner
	case domainnode.FieldStatus:
		status, err := coerceBool(name, value)
		if err != nil {
			return err
		}
		d.node.Published = status
	default:
		return d.setConfigured(name, value)
	}

	return nil
}

func (d *draft) setConfigured(name string, value any) error {
	field, ok := d.schema.Field(name)
	if !ok {
		return eris.Errorf("field %q is not defined for content type %s", name, d.schema.MachineName)
	}

	if value == nil {
		if name == domainnode.FieldBody {
			d.node.Body = nil
		}
		delete(d.node.Fields, name)
		return nil
	}

	switch field.Kind {
	case domainnode.KindFormattedText:
		body, err := coerceBody(name, value)
		if err != nil {
			return err
		}
		if name == domainnode.FieldBody {
			d.node.Body = body
			return nil
		}
		d.node.Fields[name] = map[string]any{"value": body.Value, "format": body.Format}
	case domainnode.KindText:
		text, err := coerceText(name, value)
		if err != nil {
			return err
		}
		d.node.Fields[name] = text
	case domainnode.KindInteger:
		number, err := coerceInt(name, value)
		if err != nil {
			return err
		}
		d.node.Fields[name] = number
	case domainnode.KindBoolean:
		flag, err := coerceBool(name, value)
		if err != nil {
			return err
		}
		d.node.Fields[name] = flag
	}

	return nil
}

// Save inserts the node and its first revision in one transaction.
func (d *draft) Save(ctx context.Context) (*domainnode.Node, error) {
	if d.saved {
		return nil, eris.New("draft has already been saved")
	}
	if strings.TrimSpace(d.node.Title) == "" {
		return nil, eris.New("node title is required")
	}

	fields, err := encodeFields(d.node.Fields)
	if err != nil {
		return nil, err
	}

	record := &NodeRecord{
		UUID:    uuid.NewString(),
		Type:    d.node.Type,
		Title:   d.node.Title,
		OwnerID: d.node.OwnerID,
		Status:  d.node.Published,
		Fields:  fields,
	}
	if d.node.Body != nil {
		value, format := d.node.Body.Value, d.node.Body.Format
		record.BodyValue = &value
		record.BodyFormat = &format
	}

	err = d.storage.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return eris.Wrap(err, "inserting node")
		}

		revision := &RevisionRecord{
			NodeID:     record.ID,
			Title:      record.Title,
			OwnerID:    record.OwnerID,
			Status:     record.Status,
			BodyValue:  record.BodyValue,
			BodyFormat: record.BodyFormat,
			Fields:     record.Fields,
			Log:        initialRevisionLog,
		}
		if err := tx.Create(revision).Error; err != nil {
			return eris.Wrap(err, "inserting node revision")
		}

		if err := tx.Model(record).Update("revision_id", revision.ID).Error; err != nil {
			return eris.Wrap(err, "linking node revision")
		}
		record.RevisionID = revision.ID

		return nil
	})
	if err != nil {
		d.storage.logError(logrus.Fields{"title": d.node.Title, "type": d.node.Type}, err, "saving node")
		return nil, eris.Wrapf(err, "saving node: %s", d.node.Title)
	}

	d.saved = true
	d.storage.ResetCache(record.ID)

	saved := d.node
	saved.ID = record.ID
	saved.UUID = record.UUID
	saved.RevisionID = record.RevisionID
	saved.CreatedAt = record.CreatedAt
	saved.UpdatedAt = record.UpdatedAt
	saved.Fields = maps.Clone(d.node.Fields)

	return &saved, nil
}

func coerceText(name string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", eris.Errorf("field %s expects text, got %T", name, value)
	}
}

func coerceBool(name string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, eris.Errorf("field %s expects a boolean, got %T", name, value)
	}
	return v, nil
}

func coerceInt(name string, value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return toInt64(name, uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return toInt64(name, v)
	default:
		return 0, eris.Errorf("field %s expects an integer, got %T", name, value)
	}
}

func toInt64(name string, v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, eris.Errorf("field %s value %d overflows", name, v)
	}
	return int64(v), nil
}

func coerceID(name string, value any) (uint, error) {
	number, err := coerceInt(name, value)
	if err != nil {
		return 0, err
	}
	if number < 0 {
		return 0, eris.Errorf("field %s expects a non-negative id, got %d", name, number)
	}
	return uint(number), nil
}

func coerceBody(name string, value any) (*domainnode.Body, error) {
	switch v := value.(type) {
	case domainnode.Body:
		return &v, nil
	case *domainnode.Body:
		if v == nil {
			return nil, eris.Errorf("field %s received a nil body", name)
		}
		body := *v
		return &body, nil
	case map[string]string:
		return &domainnode.Body{Value: v["value"], Format: v["format"]}, nil
	case map[string]any:
		text, err := coerceText(name+".value", v["value"])
		if err != nil {
			return nil, err
		}
		format, err := coerceText(name+".format", v["format"])
		if err != nil {
			return nil, err
		}
		return &domainnode.Body{Value: text, Format: format}, nil
	default:
		text, err := coerceText(name, value)
		if err != nil {
			return nil, err
		}
		return &domainnode.Body{Value: text}, nil
	}
}

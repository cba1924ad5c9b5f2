package node

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainnode "nodefixture/app/internal/domain/node"
)

var machineNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SaveContentType creates or replaces a content type and its configured fields.
func (s *Storage) SaveContentType(ctx context.Context, contentType domainnode.ContentType) error {
	if err := validateContentType(contentType); err != nil {
		return err
	}

	record := &ContentTypeRecord{
		MachineName:        contentType.MachineName,
		Label:              strings.TrimSpace(contentType.Label),
		PublishedByDefault: contentType.PublishedByDefault,
	}
	if record.Label == "" {
		record.Label = contentType.MachineName
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "machine_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "published_by_default", "updated_at"}),
		}).Omit("Fields").Create(record).Error; err != nil {
			return eris.Wrap(err, "upserting content type")
		}

		if err := tx.Where("content_type = ?", record.MachineName).Delete(&FieldRecord{}).Error; err != nil {
			return eris.Wrap(err, "clearing content type fields")
		}

		if len(contentType.Fields) == 0 {
			return nil
		}

		fields := make([]FieldRecord, 0, len(contentType.Fields))
		for idx, field := range contentType.Fields {
			fields = append(fields, FieldRecord{
				ContentType: record.MachineName,
				Name:        field.Name,
				Kind:        string(field.Kind),
				Weight:      idx,
			})
		}
		if err := tx.Create(&fields).Error; err != nil {
			return eris.Wrap(err, "creating content type fields")
		}

		return nil
	})
	if err != nil {
		s.logError(logrus.Fields{"content_type": contentType.MachineName}, err, "saving content type")
		return eris.Wrapf(err, "saving content type: %s", contentType.MachineName)
	}

	return nil
}

// ContentType returns the schema for machineName or nil when it does not exist.
func (s *Storage) ContentType(ctx context.Context, machineName string) (*domainnode.ContentType, error) {
	trimmed := strings.TrimSpace(machineName)
	if trimmed == "" {
		return nil, eris.New("content type is required")
	}

	var record ContentTypeRecord
	err := s.db.WithContext(ctx).
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("weight ASC, id ASC") }).
		First(&record, "machine_name = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logError(logrus.Fields{"content_type": trimmed}, err, "loading content type")
		return nil, eris.Wrapf(err, "loading content type: %s", trimmed)
	}

	return toDomainContentType(&record), nil
}

func validateContentType(contentType domainnode.ContentType) error {
	if !machineNamePattern.MatchString(contentType.MachineName) {
		return eris.Errorf("invalid content type machine name: %q", contentType.MachineName)
	}

	seen := make(map[string]struct{}, len(contentType.Fields))
	for _, field := range contentType.Fields {
		if !machineNamePattern.MatchString(field.Name) {
			return eris.Errorf("invalid field name %q on content type %s", field.Name, contentType.MachineName)
		}
		if domainnode.IsBaseField(field.Name) {
			return eris.Errorf("field %s on content type %s shadows a base field", field.Name, contentType.MachineName)
		}
		if !field.Kind.Valid() {
			return eris.Errorf("field %s on content type %s has unknown kind %q", field.Name, contentType.MachineName, field.Kind)
		}
		if field.Name == domainnode.FieldBody && field.Kind != domainnode.KindFormattedText {
			return eris.Errorf("body field on content type %s must be formatted text", contentType.MachineName)
		}
		if _, dup := seen[field.Name]; dup {
			return eris.Errorf("field %s declared twice on content type %s", field.Name, contentType.MachineName)
		}
		seen[field.Name] = struct{}{}
	}

	return nil
}

func toDomainContentType(record *ContentTypeRecord) *domainnode.ContentType {
	contentType := &domainnode.ContentType{
		MachineName:        record.MachineName,
		Label:              record.Label,
		PublishedByDefault: record.PublishedByDefault,
	}
	for _, field := range record.Fields {
		contentType.Fields = append(contentType.Fields, domainnode.FieldDefinition{
			Name: field.Name,
			Kind: domainnode.FieldKind(field.Kind),
		})
	}
	return contentType
}

package filter

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainfilter "nodefixture/app/internal/domain/filter"
)

// Repository stores text formats using Gorm.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ domainfilter.Formats = (*Repository)(nil)

// NewRepository constructs a Gorm-backed format repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

// Save inserts the format or updates the existing row with the same id.
func (r *Repository) Save(ctx context.Context, format domainfilter.Format) error {
	id := strings.TrimSpace(format.ID)
	if id == "" {
		return eris.New("format id is required")
	}

	record := &FormatRecord{
		ID:      id,
		Name:    strings.TrimSpace(format.Name),
		Weight:  format.Weight,
		Enabled: format.Enabled,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "weight", "enabled", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		r.logError(logrus.Fields{"format": id}, err, "saving text format")
		return eris.Wrapf(err, "saving text format: %s", id)
	}

	return nil
}

// List returns all formats ordered by weight then id.
func (r *Repository) List(ctx context.Context) ([]domainfilter.Format, error) {
	var records []FormatRecord
	if err := r.db.WithContext(ctx).Order("weight ASC, id ASC").Find(&records).Error; err != nil {
		r.logError(nil, err, "listing text formats")
		return nil, eris.Wrap(err, "listing text formats")
	}

	formats := make([]domainfilter.Format, 0, len(records))
	for _, record := range records {
		formats = append(formats, domainfilter.Format{
			ID:      record.ID,
			Name:    record.Name,
			Weight:  record.Weight,
			Enabled: record.Enabled,
		})
	}

	return formats, nil
}

// DefaultFormatID returns the enabled format with the lowest weight, or the
// fallback format when none is enabled.
func (r *Repository) DefaultFormatID(ctx context.Context) (string, error) {
	var record FormatRecord
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("weight ASC, id ASC").
		First(&record).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return domainfilter.FallbackFormatID, nil
		}
		r.logError(nil, err, "resolving default text format")
		return "", eris.Wrap(err, "resolving default text format")
	}

	return record.ID, nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

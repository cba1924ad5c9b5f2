package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	filterdata "nodefixture/app/internal/data/filter"
	nodedata "nodefixture/app/internal/data/node"
	userdata "nodefixture/app/internal/data/user"
)

// Migrate applies the user, text format and node schema using Gorm's AutoMigrate.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	steps := []struct {
		name   string
		models []any
	}{
		{"users", []any{&userdata.UserRecord{}}},
		{"filter_formats", []any{&filterdata.FormatRecord{}}},
		{"content_types", []any{&nodedata.ContentTypeRecord{}, &nodedata.FieldRecord{}}},
		{"nodes", []any{&nodedata.NodeRecord{}, &nodedata.RevisionRecord{}}},
	}

	for _, step := range steps {
		logFields := logrus.Fields{"component": "migrations", "schema": step.name}
		if logger != nil {
			logger.WithFields(logFields).Debug("applying schema")
		}

		if err := db.WithContext(ctx).AutoMigrate(step.models...); err != nil {
			if logger != nil {
				logger.WithFields(logFields).WithField("error", err.Error()).Error("schema migration failed")
			}
			return eris.Wrapf(err, "auto migrating %s schema", step.name)
		}
	}

	if logger != nil {
		logger.WithField("component", "migrations").Info("schema migration complete")
	}

	return nil
}

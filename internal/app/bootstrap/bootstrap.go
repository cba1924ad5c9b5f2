package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"nodefixture/app/internal/config"
	"nodefixture/app/internal/data/database"
	filterdata "nodefixture/app/internal/data/filter"
	"nodefixture/app/internal/data/migrations"
	nodedata "nodefixture/app/internal/data/node"
	userdata "nodefixture/app/internal/data/user"
	domainfilter "nodefixture/app/internal/domain/filter"
	domainnode "nodefixture/app/internal/domain/node"
	"nodefixture/app/internal/fixture"
	"nodefixture/app/internal/platform/random"
)

// DefaultFormats are the text formats installed into an empty database.
var DefaultFormats = []domainfilter.Format{
	{ID: "basic_html", Name: "Basic HTML", Weight: 0, Enabled: true},
	{ID: "restricted_html", Name: "Restricted HTML", Weight: 1, Enabled: true},
	{ID: "full_html", Name: "Full HTML", Weight: 2, Enabled: true},
	{ID: domainfilter.FallbackFormatID, Name: "Plain text", Weight: 10, Enabled: true},
}

// DefaultContentTypes are the content types installed into an empty database.
var DefaultContentTypes = []domainnode.ContentType{
	{
		MachineName:        "page",
		Label:              "Basic page",
		PublishedByDefault: true,
		Fields:             []domainnode.FieldDefinition{{Name: domainnode.FieldBody, Kind: domainnode.KindFormattedText}},
	},
	{
		MachineName:        "article",
		Label:              "Article",
		PublishedByDefault: true,
		Fields: []domainnode.FieldDefinition{
			{Name: domainnode.FieldBody, Kind: domainnode.KindFormattedText},
			{Name: "tags", Kind: domainnode.KindText},
		},
	},
}

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// Names overrides the random name source, for deterministic runs.
	Names *random.Generator
}

type Result struct {
	Nodes    *fixture.Nodes
	Storage  *nodedata.Storage
	Users    *userdata.Repository
	Session  *userdata.TestSession
	Formats  *filterdata.Repository
	Database *gorm.DB
	Cleanup  func() error
}

// Build opens the database, applies the schema, installs the default formats
// and content types, and wires the node fixture helper.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	db, err := database.Open(database.Options{
		Path:        deps.Config.DBPath,
		Logger:      deps.Logger,
		BusyTimeout: deps.Config.DBBusyTimeout,
	})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := database.Close(db); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := migrations.Migrate(ctx, db, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running migrations"))
	}

	formats, err := filterdata.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating format repository"))
	}

	storage, err := nodedata.NewStorage(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating node storage"))
	}

	if err := seed(ctx, formats, storage); err != nil {
		return closeOnError(err)
	}

	users, err := userdata.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating user repository"))
	}

	names := deps.Names
	if names == nil {
		names = random.New()
	}

	session, err := userdata.NewTestSession(users, names, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating test session"))
	}

	var defaultFormat domainfilter.Formats = formats
	if deps.Config.DefaultTextFormat != "" {
		defaultFormat = domainfilter.Static(deps.Config.DefaultTextFormat)
	}

	nodes, err := fixture.New(fixture.Options{
		Storage:     storage,
		Identity:    session,
		Formats:     defaultFormat,
		Names:       names,
		DefaultType: deps.Config.DefaultNodeType,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating node fixtures"))
	}

	cleanup := func() error {
		return database.Close(db)
	}

	return Result{
		Nodes:    nodes,
		Storage:  storage,
		Users:    users,
		Session:  session,
		Formats:  formats,
		Database: db,
		Cleanup:  cleanup,
	}, nil
}

// seed installs default formats and content types that are not present yet.
func seed(ctx context.Context, formats *filterdata.Repository, storage *nodedata.Storage) error {
	existing, err := formats.List(ctx)
	if err != nil {
		return eris.Wrap(err, "listing text formats")
	}
	if len(existing) == 0 {
		for _, format := range DefaultFormats {
			if err := formats.Save(ctx, format); err != nil {
				return eris.Wrapf(err, "installing text format %s", format.ID)
			}
		}
	}

	for _, contentType := range DefaultContentTypes {
		current, err := storage.ContentType(ctx, contentType.MachineName)
		if err != nil {
			return eris.Wrapf(err, "checking content type %s", contentType.MachineName)
		}
		if current != nil {
			continue
		}
		if err := storage.SaveContentType(ctx, contentType); err != nil {
			return eris.Wrapf(err, "installing content type %s", contentType.MachineName)
		}
	}

	return nil
}

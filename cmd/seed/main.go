package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"nodefixture/app/internal/app/bootstrap"
	"nodefixture/app/internal/config"
	"nodefixture/app/internal/domain/node"
	applog "nodefixture/app/internal/platform/log"
)

type options struct {
	count int
	kind  string
	title string
	find  string
	reset bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts options
	flag.IntVar(&opts.count, "count", 1, "number of nodes to create")
	flag.StringVar(&opts.kind, "type", "", "content type of the created nodes (defaults to DEFAULT_NODE_TYPE)")
	flag.StringVar(&opts.title, "title", "", "title for the created nodes (random when empty)")
	flag.StringVar(&opts.find, "find", "", "look up a node by this title after seeding")
	flag.BoolVar(&opts.reset, "reset-cache", false, "reset the node cache before the lookup")
	flag.Parse()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	_ = godotenv.Load()

	if opts.count < 0 {
		return eris.Errorf("count must not be negative: %d", opts.count)
	}

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return eris.Wrap(err, "creating database directory")
	}

	app, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "bootstrapping")
	}
	defer func() {
		if closeErr := app.Cleanup(); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	for i := 0; i < opts.count; i++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "seeding interrupted")
		}

		values := node.Values{}
		if opts.kind != "" {
			values[node.FieldType] = opts.kind
		}
		if opts.title != "" {
			values[node.FieldTitle] = opts.title
		}

		created, err := app.Nodes.CreateNode(ctx, values)
		if err != nil {
			return eris.Wrapf(err, "creating node %d", i+1)
		}
		logNode(logger, created).Info("created node")
	}

	if opts.find == "" {
		return nil
	}

	found, err := app.Nodes.FindByTitle(ctx, opts.find, opts.reset)
	if err != nil {
		return eris.Wrap(err, "finding node")
	}
	if found == nil {
		logger.WithField("title", opts.find).Warn("no node with that title")
		return nil
	}
	logNode(logger, found).Info("found node")

	return nil
}

func logNode(logger *logrus.Logger, n *node.Node) *logrus.Entry {
	fields := logrus.Fields{
		"node_id":     n.ID,
		"uuid":        n.UUID,
		"revision_id": n.RevisionID,
		"title":       n.Title,
		"type":        n.Type,
		"uid":         n.OwnerID,
		"published":   n.Published,
	}
	if n.Body != nil {
		fields["body_format"] = n.Body.Format
	}
	return logger.WithFields(fields)
}

// Package fixture creates and looks up nodes with default field values for tests.
package fixture

import (
	"context"
	"fmt"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"nodefixture/app/internal/domain/filter"
	"nodefixture/app/internal/domain/node"
	"nodefixture/app/internal/domain/user"
)

const (
	titleLength = 8
	bodyLength  = 32
)

// NameGenerator produces random machine names.
type NameGenerator interface {
	MachineName(length int) string
}

// Options wires a Nodes helper with its collaborators.
type Options struct {
	Storage  node.Storage
	Identity user.Identity
	Formats  filter.Formats
	Names    NameGenerator
	// DefaultType is used when values carry no type. Empty means node.DefaultType.
	DefaultType string
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
}

// Nodes creates nodes with defaults and finds them by title.
type Nodes struct {
	storage     node.Storage
	identity    user.Identity
	formats     filter.Formats
	names       NameGenerator
	defaultType string
	logger      *logrus.Logger
	sentryHub   *sentry.Hub
}

// New validates the collaborators and returns a Nodes helper.
func New(opts Options) (*Nodes, error) {
	if opts.Storage == nil {
		return nil, eris.New("node storage is required")
	}
	if opts.Identity == nil {
		return nil, eris.New("identity is required")
	}
	if opts.Formats == nil {
		return nil, eris.New("text formats are required")
	}
	if opts.Names == nil {
		return nil, eris.New("name generator is required")
	}

	defaultType := strings.TrimSpace(opts.DefaultType)
	if defaultType == "" {
		defaultType = node.DefaultType
	}

	return &Nodes{
		storage:     opts.Storage,
		identity:    opts.Identity,
		formats:     opts.Formats,
		names:       opts.Names,
		defaultType: defaultType,
		logger:      opts.Logger,
		sentryHub:   opts.SentryHub,
	}, nil
}

// FindByTitle returns the first node titled title, or nil when there is none.
// When several nodes share the title, which one is returned is not defined.
// reset drops the storage cache before querying.
func (n *Nodes) FindByTitle(ctx context.Context, title string, reset bool) (*node.Node, error) {
	if reset {
		n.storage.ResetCache()
	}

	nodes, err := n.storage.LoadByProperties(ctx, map[string]any{node.FieldTitle: title})
	if err != nil {
		n.recordError(logrus.Fields{"title": title}, err, "loading node by title")
		return nil, eris.Wrapf(err, "loading node by title: %s", title)
	}

	if len(nodes) == 0 {
		return nil, nil
	}

	return nodes[0], nil
}

// FindByMarkupTitle is FindByTitle for titles held in a markup wrapper.
func (n *Nodes) FindByMarkupTitle(ctx context.Context, title fmt.Stringer, reset bool) (*node.Node, error) {
	if title == nil {
		return nil, eris.New("title is nil")
	}
	return n.FindByTitle(ctx, title.String(), reset)
}

// CreateNode saves a node built from values. Missing title, type, body and
// owner values are filled in; values supplied by the caller are never replaced.
// The body default only applies when the content type has a body field.
func (n *Nodes) CreateNode(ctx context.Context, values node.Values) (*node.Node, error) {
	merged := values.Clone()
	if !merged.Has(node.FieldTitle) {
		merged[node.FieldTitle] = n.names.MachineName(titleLength)
	}
	if !merged.Has(node.FieldType) {
		merged[node.FieldType] = n.defaultType
	}

	fields := logrus.Fields{"title": merged[node.FieldTitle], "type": merged[node.FieldType]}

	draft, err := n.storage.CreateDraft(ctx, merged)
	if err != nil {
		n.recordError(fields, err, "building node draft")
		return nil, eris.Wrap(err, "building node draft")
	}

	if !values.Has(node.FieldBody) && draft.Schema().HasField(node.FieldBody) {
		body, err := n.defaultBody(ctx)
		if err != nil {
			n.recordError(fields, err, "building default body")
			return nil, err
		}
		if err := draft.Set(node.FieldBody, body); err != nil {
			n.recordError(fields, err, "setting default body")
			return nil, eris.Wrap(err, "setting default body")
		}
	}

	if !values.Has(node.FieldOwner) {
		owner, err := n.resolveOwner(ctx)
		if err != nil {
			n.recordError(fields, err, "resolving node owner")
			return nil, err
		}
		if err := draft.Set(node.FieldOwner, owner); err != nil {
			n.recordError(fields, err, "setting node owner")
			return nil, eris.Wrap(err, "setting node owner")
		}
	}

	saved, err := draft.Save(ctx)
	if err != nil {
		n.recordError(fields, err, "saving node")
		return nil, eris.Wrap(err, "saving node")
	}

	if n.logger != nil {
		n.logger.WithFields(logrus.Fields{
			"node_id": saved.ID,
			"title":   saved.Title,
			"type":    saved.Type,
			"uid":     saved.OwnerID,
		}).Debug("created fixture node")
	}

	return saved, nil
}

func (n *Nodes) defaultBody(ctx context.Context) (node.Body, error) {
	format, err := n.formats.DefaultFormatID(ctx)
	if err != nil {
		return node.Body{}, eris.Wrap(err, "resolving default text format")
	}

	return node.Body{Value: n.names.MachineName(bodyLength), Format: format}, nil
}

// resolveOwner picks the current user, then a provisioned test user, then anonymous.
func (n *Nodes) resolveOwner(ctx context.Context) (uint, error) {
	if id, ok := n.identity.CurrentUserID(); ok {
		current, err := n.identity.LoadUser(ctx, id)
		if err != nil {
			return 0, eris.Wrapf(err, "loading current user: %d", id)
		}
		if current != nil {
			return current.ID, nil
		}
	}

	if provisioner, ok := n.identity.(user.TestUserProvisioner); ok {
		provisioned, err := provisioner.ProvisionTestUser(ctx)
		if err != nil {
			return 0, eris.Wrap(err, "provisioning test user")
		}
		return provisioned.ID, nil
	}

	return user.AnonymousID, nil
}

func (n *Nodes) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if n.logger != nil {
		entry := n.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if n.sentryHub != nil {
		n.sentryHub.CaptureException(err)
	}
}

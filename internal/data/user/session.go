package user

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domainuser "nodefixture/app/internal/domain/user"
)

const testUserNameLength = 8

// NameGenerator produces the random names given to provisioned users.
type NameGenerator interface {
	MachineName(length int) string
}

// Session tracks the user authenticated for one test or command run.
type Session struct {
	repo *Repository

	mu      sync.RWMutex
	current uint
}

var _ domainuser.Identity = (*Session)(nil)

// NewSession returns an anonymous session backed by repo.
func NewSession(repo *Repository) (*Session, error) {
	if repo == nil {
		return nil, eris.New("user repository is required")
	}

	return &Session{repo: repo}, nil
}

// Login makes id the current user. Unknown ids are rejected.
func (s *Session) Login(ctx context.Context, id uint) error {
	u, err := s.repo.Load(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "logging in user: %d", id)
	}
	if u == nil {
		return eris.Errorf("user %d does not exist", id)
	}

	s.mu.Lock()
	s.current = u.ID
	s.mu.Unlock()

	return nil
}

// Logout returns the session to anonymous.
func (s *Session) Logout() {
	s.mu.Lock()
	s.current = domainuser.AnonymousID
	s.mu.Unlock()
}

// CurrentUserID returns the logged in user id.
func (s *Session) CurrentUserID() (uint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.current != domainuser.AnonymousID
}

// LoadUser returns the user with id, or nil when it does not exist.
func (s *Session) LoadUser(ctx context.Context, id uint) (*domainuser.User, error) {
	return s.repo.Load(ctx, id)
}

// TestSession is a Session that can provision and log in throwaway users.
type TestSession struct {
	*Session
	names  NameGenerator
	logger *logrus.Logger
}

var (
	_ domainuser.Identity            = (*TestSession)(nil)
	_ domainuser.TestUserProvisioner = (*TestSession)(nil)
)

// NewTestSession wraps an anonymous session with user provisioning.
func NewTestSession(repo *Repository, names NameGenerator, logger *logrus.Logger) (*TestSession, error) {
	session, err := NewSession(repo)
	if err != nil {
		return nil, err
	}
	if names == nil {
		return nil, eris.New("name generator is required")
	}

	return &TestSession{Session: session, names: names, logger: logger}, nil
}

// ProvisionTestUser creates an active user with a random name and logs it in.
func (s *TestSession) ProvisionTestUser(ctx context.Context) (*domainuser.User, error) {
	name := s.names.MachineName(testUserNameLength)
	u := &domainuser.User{
		Name:   name,
		Email:  name + "@example.com",
		Active: true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, eris.Wrap(err, "provisioning test user")
	}

	if err := s.Login(ctx, u.ID); err != nil {
		return nil, eris.Wrap(err, "logging in provisioned test user")
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": u.ID, "name": u.Name}).Debug("provisioned test user")
	}

	return u, nil
}

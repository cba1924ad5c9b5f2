package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainuser "nodefixture/app/internal/domain/user"
)

// Repository persists users using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed user repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

// Create stores a new user and fills in its id and UUID.
func (r *Repository) Create(ctx context.Context, u *domainuser.User) error {
	if u == nil {
		return eris.New("user is nil")
	}

	name := strings.TrimSpace(u.Name)
	if name == "" {
		return eris.New("user name is required")
	}

	record := &UserRecord{
		UUID:   u.UUID,
		Name:   name,
		Email:  strings.TrimSpace(u.Email),
		Active: u.Active,
	}
	if record.UUID == "" {
		record.UUID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			dupErr := eris.Errorf("user with name %s already exists", name)
			r.logError(logrus.Fields{"name": name}, dupErr, "creating user with duplicate name")
			return dupErr
		}
		r.logError(logrus.Fields{"name": name}, err, "creating user")
		return eris.Wrapf(err, "creating user: %s", name)
	}

	*u = *toDomainUser(record)
	return nil
}

// Load returns the user with id or nil when it does not exist.
func (r *Repository) Load(ctx context.Context, id uint) (*domainuser.User, error) {
	if id == domainuser.AnonymousID {
		return nil, nil
	}

	var record UserRecord
	err := r.db.WithContext(ctx).First(&record, id).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"user_id": id}, err, "loading user")
		return nil, eris.Wrapf(err, "loading user: %d", id)
	}

	return toDomainUser(&record), nil
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

func toDomainUser(record *UserRecord) *domainuser.User {
	return &domainuser.User{
		ID:     record.ID,
		UUID:   record.UUID,
		Name:   record.Name,
		Email:  record.Email,
		Active: record.Active,
	}
}

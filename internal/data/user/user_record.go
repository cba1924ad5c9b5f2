package user

import "gorm.io/gorm"

// UserRecord is an account row.
type UserRecord struct {
	gorm.Model
	UUID   string `gorm:"size:36;uniqueIndex:idx_users_uuid;not null"`
	Name   string `gorm:"size:60;uniqueIndex:idx_users_name;not null"`
	Email  string `gorm:"size:254"`
	Active bool   `gorm:"not null"`
}

// TableName defines the table name for users.
func (UserRecord) TableName() string {
	return "users"
}

package filter

import "time"

// FormatRecord is a text format row.
type FormatRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:255;not null"`
	Weight    int    `gorm:"not null"`
	Enabled   bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName defines the table name for text formats.
func (FormatRecord) TableName() string {
	return "filter_formats"
}

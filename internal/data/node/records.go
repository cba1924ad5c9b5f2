package node

import (
	"time"

	"gorm.io/gorm"
)

// NodeRecord is the current state of a node.
type NodeRecord struct {
	gorm.Model
	UUID       string  `gorm:"size:36;uniqueIndex:idx_nodes_uuid;not null"`
	Type       string  `gorm:"size:32;index:idx_nodes_type;not null"`
	Title      string  `gorm:"size:255;index:idx_nodes_title;not null"`
	OwnerID    uint    `gorm:"index:idx_nodes_owner;not null"`
	Status     bool    `gorm:"not null"`
	BodyValue  *string `gorm:"type:text"`
	BodyFormat *string `gorm:"size:64"`
	Fields     string  `gorm:"type:text;not null"`
	RevisionID uint
}

// TableName defines the table name for nodes.
func (NodeRecord) TableName() string {
	return "nodes"
}

// RevisionRecord is a snapshot of a node taken when it is saved.
type RevisionRecord struct {
	gorm.Model
	NodeID     uint    `gorm:"index:idx_node_revisions_node;not null"`
	Title      string  `gorm:"size:255;not null"`
	OwnerID    uint    `gorm:"not null"`
	Status     bool    `gorm:"not null"`
	BodyValue  *string `gorm:"type:text"`
	BodyFormat *string `gorm:"size:64"`
	Fields     string  `gorm:"type:text;not null"`
	Log        string  `gorm:"type:text"`
}

// TableName defines the table name for node revisions.
func (RevisionRecord) TableName() string {
	return "node_revisions"
}

// ContentTypeRecord is a node bundle definition.
type ContentTypeRecord struct {
	MachineName        string        `gorm:"primaryKey;size:32"`
	Label              string        `gorm:"size:255;not null"`
	PublishedByDefault bool          `gorm:"not null"`
	Fields             []FieldRecord `gorm:"foreignKey:ContentType;references:MachineName;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName defines the table name for content types.
func (ContentTypeRecord) TableName() string {
	return "content_types"
}

// FieldRecord attaches a configured field to a content type.
type FieldRecord struct {
	ID          uint   `gorm:"primaryKey"`
	ContentType string `gorm:"size:32;uniqueIndex:idx_content_type_fields_name,priority:1;not null"`
	Name        string `gorm:"size:32;uniqueIndex:idx_content_type_fields_name,priority:2;not null"`
	Kind        string `gorm:"size:32;not null"`
	Weight      int    `gorm:"not null"`
}

// TableName defines the table name for content type fields.
func (FieldRecord) TableName() string {
	return "content_type_fields"
}

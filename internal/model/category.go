package model

import "github.com/google/uuid"

// Category is a node in an owner's category tree. Names are unique per owner.
type Category struct {
	BaseModel
	SoftDeletable
	Name        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_categories_owner_name,where:deleted_at IS NULL" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_owner_name,where:deleted_at IS NULL" json:"owner_id"`
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"-"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent      *Category  `gorm:"foreignKey:ParentID" json:"-"`
}

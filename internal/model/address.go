package model

import "github.com/google/uuid"

type Address struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	StreetAddress string    `gorm:"type:varchar(255);not null" json:"street_address"`
	City          string    `gorm:"type:varchar(100);not null" json:"city"`
	State         string    `gorm:"type:varchar(100)" json:"state"`
	PostalCode    string    `gorm:"type:varchar(20)" json:"postal_code"`
	Country       string    `gorm:"type:varchar(100);not null" json:"country"`
	IsDefault     bool      `gorm:"default:false" json:"is_default"`
}

package models

import (
	"time"
)

// OptionValue is a global catalog entry such as "Color: Red" that list personalizations offer
type OptionValue struct {
	ID                                 uint                                `gorm:"primaryKey" json:"id"`
	Name                               string                              `gorm:"size:100;not null" json:"name"`
	Presentation                       string                              `gorm:"size:100" json:"presentation"`
	ImageS3Key                         *string                             `json:"image_s3_key"`                  // nullable, swatch image
	ImageURL                           *string                             `gorm:"-" json:"image_url,omitempty"` // computed, presigned URL
	OptionValueProductPersonalizations []OptionValueProductPersonalization `gorm:"foreignKey:OptionValueID" json:"-"`
	CreatedAt                          time.Time                           `json:"created_at"`
	UpdatedAt                          time.Time                           `json:"updated_at"`
}

// TableName specifies the table name for the OptionValue model
func (OptionValue) TableName() string {
	return "option_values"
}

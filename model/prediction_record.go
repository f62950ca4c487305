package model

import "time"

// PredictionRecord is one served prediction, kept in the history table.
type PredictionRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Label         string    `gorm:"size:64;index;not null" json:"label"`
	ClassIndex    *int      `json:"classIndex,omitempty"`
	SavedPath     string    `gorm:"size:767" json:"savedPath,omitempty"`
	PayloadSHA256 string    `gorm:"size:64;index" json:"payloadSha256"`
	CacheHit      bool      `json:"cacheHit"`
	DurationMs    int64     `json:"durationMs"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TableName pins the table name used by gorm.
func (PredictionRecord) TableName() string {
	return "prediction_records"
}

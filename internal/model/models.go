package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:255;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Chunk is one embedded passage of an ingested document. Retrieval filters
// by DocID and ranks by cosine similarity against the stored vector.
type Chunk struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	DocID     string         `json:"doc_id" gorm:"size:64;index;not null"`
	Seq       int            `json:"seq" gorm:"not null"`
	Source    string         `json:"source" gorm:"size:255"`
	Text      string         `json:"text" gorm:"type:text"`
	Embedding datatypes.JSON `json:"embedding" gorm:"type:json"`
	CreatedAt time.Time      `json:"created_at"`
}

package db

import (
	"time"
)

// StatusReceived is the only status a deletion request ever has.
const StatusReceived = "received"

// DeletionRequest is an immutable record of one user's request to have
// their data erased. Seq is an internal insertion counter and is never
// exposed outside the store.
type DeletionRequest struct {
	Seq        uint      `json:"-" gorm:"column:seq;primaryKey;autoIncrement"`
	RequestID  string    `json:"request_id" gorm:"column:request_id;uniqueIndex;not null"`
	Identifier string    `json:"identifier" gorm:"not null"`
	Channel    string    `json:"channel" gorm:"not null;default:''"`
	Notes      string    `json:"notes" gorm:"type:text;not null;default:''"`
	Status     string    `json:"status" gorm:"not null;default:received"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
}

package models

import (
	"encoding/json"
	"time"
)

// SyncData is the current snapshot of one file type for one user.
type SyncData struct {
	ID        int64           `db:"id"`
	UserID    string          `db:"user_id"`
	FileType  FileType        `db:"file_type"`
	Data      json.RawMessage `db:"data"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (SyncData) TableName() string {
	return "sync_data"
}

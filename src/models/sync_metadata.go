package models

import "time"

// SyncMetadata records who pushed a file type last and how often it was pushed.
// LastSyncTime and LastSyncedAt are written with the same value on every push.
type SyncMetadata struct {
	ID                   int64     `db:"id"`
	UserID               string    `db:"user_id"`
	FileType             FileType  `db:"file_type"`
	LastSyncTime         time.Time `db:"last_sync_time"`
	LastSyncedByDeviceID string    `db:"last_synced_by_device_id"`
	LastSyncedAt         time.Time `db:"last_synced_at"`
	ClientVersion        string    `db:"client_version"`
	DeviceName           string    `db:"device_name"`
	TotalSyncs           int       `db:"total_syncs"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func (SyncMetadata) TableName() string {
	return "sync_metadata"
}

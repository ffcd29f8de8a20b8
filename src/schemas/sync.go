package schemas

import "encoding/json"

type PushRequest struct {
	Version       string          `json:"version"`
	DeviceID      string          `json:"deviceId"`
	SyncTimestamp string          `json:"syncTimestamp"`
	Data          json.RawMessage `json:"data"`
	DeviceName    string          `json:"deviceName,omitempty"`
}

type PullResponse struct {
	Success         bool            `json:"success"`
	Data            json.RawMessage `json:"data"`
	ServerTimestamp string          `json:"serverTimestamp"`
	LastSyncTime    string          `json:"lastSyncTime"`
}

type PushResponse struct {
	Success         bool   `json:"success"`
	ServerTimestamp string `json:"serverTimestamp"`
	LastSyncTime    string `json:"lastSyncTime"`
	EntriesCount    int    `json:"entriesCount"`
	Message         string `json:"message"`
}

type SyncMetadataResponse struct {
	UserID               string `json:"userId"`
	FileType             string `json:"fileType"`
	LastSyncTime         string `json:"lastSyncTime"`
	LastSyncedByDeviceID string `json:"lastSyncedByDeviceId"`
	LastSyncedAt         string `json:"lastSyncedAt"`
	ClientVersion        string `json:"clientVersion,omitempty"`
	DeviceName           string `json:"deviceName,omitempty"`
	TotalSyncs           int    `json:"totalSyncs"`
}

type SyncStatusResponse struct {
	Success bool                  `json:"success"`
	Data    *SyncMetadataResponse `json:"data"`
}

// SyncStatusMapResponse always carries every known file type; never-synced ones map to null.
type SyncStatusMapResponse struct {
	Success bool                             `json:"success"`
	Data    map[string]*SyncMetadataResponse `json:"data"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

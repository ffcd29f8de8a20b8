package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"pantry-server/src/models"
	"pantry-server/src/repositories"
	"pantry-server/src/schemas"
	"pantry-server/src/utils"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidFileType  = models.ErrInvalidFileType
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidDataShape = errors.New("payload does not match file type shape")
	ErrNotFound         = errors.New("sync metadata not found")
)

type SyncServiceI interface {
	Pull(ctx context.Context, userID, fileType string) (*schemas.PullResponse, error)
	Push(ctx context.Context, userID, fileType string, req *schemas.PushRequest) (*schemas.PushResponse, error)
	GetStatus(ctx context.Context, userID, fileType string) (*schemas.SyncStatusResponse, error)
	GetAllStatus(ctx context.Context, userID string) (*schemas.SyncStatusMapResponse, error)
	Delete(ctx context.Context, userID, fileType string) (*schemas.DeleteResponse, error)
}

// SyncService keeps one snapshot per (user, file type). Every push replaces the
// stored document wholesale; the last push to land wins.
type SyncService struct {
	syncRepository repositories.SyncRepository
	cache          SnapshotCache
	clock          clockwork.Clock
}

func NewSyncService(syncRepository repositories.SyncRepository, cache SnapshotCache, clock clockwork.Clock) *SyncService {
	if cache == nil {
		cache = NoopSnapshotCache{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SyncService{
		syncRepository: syncRepository,
		cache:          cache,
		clock:          clock,
	}
}

func (s *SyncService) Pull(ctx context.Context, userID, fileType string) (*schemas.PullResponse, error) {
	ft, err := parseFileType(fileType)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.loadSnapshot(ctx, userID, ft)
	if err != nil {
		return nil, serverError(ctx, "pull", ft, err)
	}

	return &schemas.PullResponse{
		Success:         true,
		Data:            snapshot.Data,
		ServerTimestamp: utils.FormatTimestamp(s.clock.Now()),
		LastSyncTime:    snapshot.LastSyncTime,
	}, nil
}

func (s *SyncService) loadSnapshot(ctx context.Context, userID string, ft models.FileType) (*CachedSnapshot, error) {
	key := snapshotKey(userID, ft)
	cached, err := s.cache.GetSnapshot(ctx, key)
	if err != nil {
		utils.LoggerFromContext(ctx).WithError(err).WithField("key", key).Warn("snapshot cache read failed")
	} else if cached != nil {
		return cached, nil
	}
	lease, err := s.cache.Lease(ctx, key)
	if err != nil {
		utils.LoggerFromContext(ctx).WithError(err).WithField("key", key).Warn("snapshot cache lease failed")
		lease = ""
	}

	data, err := s.syncRepository.GetSyncData(ctx, userID, ft)
	if err != nil {
		return nil, err
	}
	metadata, err := s.syncRepository.GetSyncMetadata(ctx, userID, ft)
	if err != nil {
		return nil, err
	}

	snapshot := &CachedSnapshot{Data: emptyPayload(ft)}
	if data != nil {
		snapshot.Data = data.Data
	}
	if metadata != nil {
		snapshot.LastSyncTime = utils.FormatTimestamp(metadata.LastSyncTime)
	}
	// Never-synced pairs are not cached.
	if data != nil && lease != "" {
		if _, err := s.cache.FillSnapshot(ctx, key, lease, snapshot); err != nil {
			utils.LoggerFromContext(ctx).WithError(err).WithField("key", key).Warn("snapshot cache fill failed")
		}
	}
	return snapshot, nil
}

func (s *SyncService) Push(ctx context.Context, userID, fileType string, req *schemas.PushRequest) (*schemas.PushResponse, error) {
	ft, err := parseFileType(fileType)
	if err != nil {
		return nil, err
	}
	if req == nil || req.Version == "" || req.DeviceID == "" || req.SyncTimestamp == "" || isAbsent(req.Data) {
		return nil, &utils.HTTPError{
			Status:  http.StatusBadRequest,
			Code:    utils.CodeInvalidData,
			Message: "Missing required fields (version, deviceId, syncTimestamp, data)",
			Cause:   ErrMissingField,
		}
	}

	entriesCount, err := validateShape(ft, req.Data)
	if err != nil {
		return nil, err
	}

	// Postgres keeps microseconds; truncating keeps the stored and echoed times identical.
	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	_, err = s.syncRepository.SaveSnapshot(ctx, repositories.SnapshotWrite{
		UserID:        userID,
		FileType:      ft,
		Data:          req.Data,
		DeviceID:      req.DeviceID,
		DeviceName:    req.DeviceName,
		ClientVersion: req.Version,
		SyncedAt:      now,
	})
	if err != nil {
		return nil, serverError(ctx, "push", ft, err)
	}

	timestamp := utils.FormatTimestamp(now)
	s.invalidateSnapshot(ctx, snapshotKey(userID, ft))

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"userId":   userID,
		"fileType": ft.String(),
		"deviceId": req.DeviceID,
		"entries":  entriesCount,
	}).Info("sync push stored")

	return &schemas.PushResponse{
		Success:         true,
		ServerTimestamp: timestamp,
		LastSyncTime:    timestamp,
		EntriesCount:    entriesCount,
		Message:         fmt.Sprintf("%s synced successfully", ft),
	}, nil
}

func (s *SyncService) GetStatus(ctx context.Context, userID, fileType string) (*schemas.SyncStatusResponse, error) {
	ft, err := parseFileType(fileType)
	if err != nil {
		return nil, err
	}

	metadata, err := s.syncRepository.GetSyncMetadata(ctx, userID, ft)
	if err != nil {
		return nil, serverError(ctx, "status", ft, err)
	}
	if metadata == nil {
		return nil, &utils.HTTPError{
			Status:  http.StatusNotFound,
			Code:    utils.CodeNotFound,
			Message: "Sync metadata not found for this file type",
			Cause:   ErrNotFound,
		}
	}

	return &schemas.SyncStatusResponse{
		Success: true,
		Data:    toMetadataResponse(metadata),
	}, nil
}

func (s *SyncService) GetAllStatus(ctx context.Context, userID string) (*schemas.SyncStatusMapResponse, error) {
	all, err := s.syncRepository.ListSyncMetadata(ctx, userID)
	if err != nil {
		return nil, serverError(ctx, "status", 0, err)
	}

	statusMap := make(map[string]*schemas.SyncMetadataResponse, len(models.AllFileTypes()))
	for _, ft := range models.AllFileTypes() {
		statusMap[ft.String()] = nil
	}
	for i := range all {
		statusMap[all[i].FileType.String()] = toMetadataResponse(&all[i])
	}

	return &schemas.SyncStatusMapResponse{
		Success: true,
		Data:    statusMap,
	}, nil
}

func (s *SyncService) Delete(ctx context.Context, userID, fileType string) (*schemas.DeleteResponse, error) {
	ft, err := parseFileType(fileType)
	if err != nil {
		return nil, err
	}

	deleted, err := s.syncRepository.DeleteSnapshot(ctx, userID, ft)
	if err != nil {
		return nil, serverError(ctx, "delete", ft, err)
	}

	s.invalidateSnapshot(ctx, snapshotKey(userID, ft))

	message := fmt.Sprintf("No %s data found to delete", ft)
	if deleted {
		message = fmt.Sprintf("All %s data has been deleted", ft)
	}
	return &schemas.DeleteResponse{
		Success: true,
		Message: message,
	}, nil
}

// invalidateSnapshot runs after every committed write. A failure leaves a stale entry until the cache TTL.
func (s *SyncService) invalidateSnapshot(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		utils.LoggerFromContext(ctx).WithError(err).WithField("key", key).Error("snapshot cache invalidation failed")
	}
}

// ValidateFileType returns the INVALID_FILE_TYPE error for names outside the enumeration.
func ValidateFileType(name string) error {
	_, err := parseFileType(name)
	return err
}

func parseFileType(name string) (models.FileType, error) {
	ft, err := models.ParseFileType(name)
	if err != nil {
		message := "Invalid file type"
		if name == "" {
			message = "File type is required"
		}
		return 0, &utils.HTTPError{
			Status:  http.StatusBadRequest,
			Code:    utils.CodeInvalidFileType,
			Message: message,
			Cause:   err,
		}
	}
	return ft, nil
}

// validateShape checks the payload against the file type and returns the
// number of entries it holds.
func validateShape(ft models.FileType, data json.RawMessage) (int, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch ft.Shape() {
	case models.ShapeObject:
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return 0, invalidShape("Settings must be a single object, not an array")
		}
		return 1, nil
	case models.ShapeList:
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return 0, invalidShape("Data must be an array")
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return 0, invalidShape("Data must be an array")
		}
		return len(entries), nil
	}
	return 0, invalidShape("Unsupported file type")
}

func invalidShape(message string) error {
	return &utils.HTTPError{
		Status:  http.StatusBadRequest,
		Code:    utils.CodeInvalidData,
		Message: message,
		Cause:   ErrInvalidDataShape,
	}
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func emptyPayload(ft models.FileType) json.RawMessage {
	if ft.Shape() == models.ShapeObject {
		return json.RawMessage("{}")
	}
	return json.RawMessage("[]")
}

func snapshotKey(userID string, ft models.FileType) string {
	// The hash tag keeps a key and its lease in one cluster slot.
	return fmt.Sprintf("sync:{%s}:%s", userID, ft)
}

func serverError(ctx context.Context, operation string, ft models.FileType, err error) error {
	entry := utils.LoggerFromContext(ctx).WithError(err).WithField("operation", operation)
	if ft.Valid() {
		entry = entry.WithField("fileType", ft.String())
	}
	entry.Error("sync operation failed")
	return &utils.HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    utils.CodeServerError,
		Message: "Internal server error",
		Cause:   err,
	}
}

func toMetadataResponse(m *models.SyncMetadata) *schemas.SyncMetadataResponse {
	return &schemas.SyncMetadataResponse{
		UserID:               m.UserID,
		FileType:             m.FileType.String(),
		LastSyncTime:         utils.FormatTimestamp(m.LastSyncTime),
		LastSyncedByDeviceID: m.LastSyncedByDeviceID,
		LastSyncedAt:         utils.FormatTimestamp(m.LastSyncedAt),
		ClientVersion:        m.ClientVersion,
		DeviceName:           m.DeviceName,
		TotalSyncs:           m.TotalSyncs,
	}
}

// Package repotest provides repository doubles and database helpers for tests.
package repotest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"pantry-server/src/models"
	"pantry-server/src/repositories"
)

type syncKey struct {
	userID   string
	fileType models.FileType
}

// SyncRepository is an in-memory repositories.SyncRepository.
type SyncRepository struct {
	mu       sync.Mutex
	nextID   int64
	data     map[syncKey]models.SyncData
	metadata map[syncKey]models.SyncMetadata

	// Err, when set, is returned by every call.
	Err error
}

func NewSyncRepository() *SyncRepository {
	return &SyncRepository{
		data:     map[syncKey]models.SyncData{},
		metadata: map[syncKey]models.SyncMetadata{},
	}
}

var _ repositories.SyncRepository = (*SyncRepository)(nil)

func (r *SyncRepository) GetSyncData(_ context.Context, userID string, fileType models.FileType) (*models.SyncData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	data, ok := r.data[syncKey{userID, fileType}]
	if !ok {
		return nil, nil
	}
	data.Data = append(json.RawMessage(nil), data.Data...)
	return &data, nil
}

func (r *SyncRepository) GetSyncMetadata(_ context.Context, userID string, fileType models.FileType) (*models.SyncMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	metadata, ok := r.metadata[syncKey{userID, fileType}]
	if !ok {
		return nil, nil
	}
	return &metadata, nil
}

func (r *SyncRepository) ListSyncMetadata(_ context.Context, userID string) ([]models.SyncMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var result []models.SyncMetadata
	for key, metadata := range r.metadata {
		if key.userID == userID {
			result = append(result, metadata)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FileType.String() < result[j].FileType.String()
	})
	return result, nil
}

func (r *SyncRepository) SaveSnapshot(_ context.Context, in repositories.SnapshotWrite) (*models.SyncMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	key := syncKey{in.UserID, in.FileType}
	now := time.Now().UTC()

	data, ok := r.data[key]
	if !ok {
		r.nextID++
		data = models.SyncData{ID: r.nextID, UserID: in.UserID, FileType: in.FileType, CreatedAt: now}
	}
	data.Data = append(json.RawMessage(nil), in.Data...)
	data.UpdatedAt = now
	r.data[key] = data

	metadata, ok := r.metadata[key]
	if !ok {
		r.nextID++
		metadata = models.SyncMetadata{ID: r.nextID, UserID: in.UserID, FileType: in.FileType, CreatedAt: now}
	}
	metadata.LastSyncTime = in.SyncedAt
	metadata.LastSyncedAt = in.SyncedAt
	metadata.LastSyncedByDeviceID = in.DeviceID
	metadata.ClientVersion = in.ClientVersion
	if in.DeviceName != "" {
		metadata.DeviceName = in.DeviceName
	}
	metadata.TotalSyncs++
	metadata.UpdatedAt = now
	r.metadata[key] = metadata

	return &metadata, nil
}

func (r *SyncRepository) DeleteSnapshot(_ context.Context, userID string, fileType models.FileType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	key := syncKey{userID, fileType}
	_, existed := r.data[key]
	delete(r.data, key)
	delete(r.metadata, key)
	return existed, nil
}

// UserRepository is an in-memory repositories.UserRepository.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]models.User

	Err error
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]models.User{}}
}

var _ repositories.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	existing, ok := r.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	existing.Password = user.Password
	existing.AvatarURL = user.AvatarURL
	existing.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

// Delete removes a user, simulating a row that disappears behind a valid token.
func (r *UserRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pantry-server/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotWrite is everything a push persists for one (user, file type) pair.
type SnapshotWrite struct {
	UserID        string
	FileType      models.FileType
	Data          json.RawMessage
	DeviceID      string
	DeviceName    string
	ClientVersion string
	SyncedAt      time.Time
}

type SyncRepository interface {
	GetSyncData(ctx context.Context, userID string, fileType models.FileType) (*models.SyncData, error)
	GetSyncMetadata(ctx context.Context, userID string, fileType models.FileType) (*models.SyncMetadata, error)
	ListSyncMetadata(ctx context.Context, userID string) ([]models.SyncMetadata, error)
	// SaveSnapshot replaces the stored document and upserts its metadata atomically.
	SaveSnapshot(ctx context.Context, in SnapshotWrite) (*models.SyncMetadata, error)
	// DeleteSnapshot removes document and metadata, reporting whether a document existed.
	DeleteSnapshot(ctx context.Context, userID string, fileType models.FileType) (bool, error)
}

type syncRepo struct {
	DB *pgxpool.Pool
}

func NewSyncRepository(db *pgxpool.Pool) SyncRepository {
	return &syncRepo{DB: db}
}

const metadataColumns = `
	id,
	user_id,
	file_type,
	last_sync_time,
	last_synced_by_device_id,
	last_synced_at,
	COALESCE(client_version, ''),
	COALESCE(device_name, ''),
	total_syncs,
	created_at,
	updated_at`

func (r *syncRepo) GetSyncData(ctx context.Context, userID string, fileType models.FileType) (*models.SyncData, error) {
	var (
		data     models.SyncData
		fileName string
		raw      []byte
	)
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, file_type, data, created_at, updated_at
		FROM sync_data
		WHERE user_id = $1 AND file_type = $2
	`, userID, fileType.String()).Scan(
		&data.ID,
		&data.UserID,
		&fileName,
		&raw,
		&data.CreatedAt,
		&data.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if data.FileType, err = models.ParseFileType(fileName); err != nil {
		return nil, err
	}
	data.Data = json.RawMessage(raw)
	return &data, nil
}

func (r *syncRepo) GetSyncMetadata(ctx context.Context, userID string, fileType models.FileType) (*models.SyncMetadata, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT`+metadataColumns+`
		FROM sync_metadata
		WHERE user_id = $1 AND file_type = $2
	`, userID, fileType.String())

	metadata, err := scanMetadata(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return metadata, nil
}

func (r *syncRepo) ListSyncMetadata(ctx context.Context, userID string) ([]models.SyncMetadata, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT`+metadataColumns+`
		FROM sync_metadata
		WHERE user_id = $1
		ORDER BY file_type ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.SyncMetadata
	for rows.Next() {
		metadata, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *metadata)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *syncRepo) SaveSnapshot(ctx context.Context, in SnapshotWrite) (*models.SyncMetadata, error) {
	// Start a transaction
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sync_data (user_id, file_type, data)
		VALUES ($1, $2, $3::json)
		ON CONFLICT (user_id, file_type) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = NOW()`,
		in.UserID, in.FileType.String(), string(in.Data))
	if err != nil {
		return nil, fmt.Errorf("upsert sync data: %w", err)
	}

	// device_name survives pushes that omit it; total_syncs is incremented in
	// place so concurrent pushes cannot lose a count.
	row := tx.QueryRow(ctx, `
		INSERT INTO sync_metadata (
			user_id,
			file_type,
			last_sync_time,
			last_synced_by_device_id,
			last_synced_at,
			client_version,
			device_name,
			total_syncs
		)
		VALUES ($1, $2, $3, $4, $3, NULLIF($5, ''), NULLIF($6, ''), 1)
		ON CONFLICT (user_id, file_type) DO UPDATE SET
			last_sync_time = EXCLUDED.last_sync_time,
			last_synced_by_device_id = EXCLUDED.last_synced_by_device_id,
			last_synced_at = EXCLUDED.last_synced_at,
			client_version = EXCLUDED.client_version,
			device_name = COALESCE(EXCLUDED.device_name, sync_metadata.device_name),
			total_syncs = sync_metadata.total_syncs + 1,
			updated_at = NOW()
		RETURNING`+metadataColumns,
		in.UserID, in.FileType.String(), in.SyncedAt.UTC(), in.DeviceID, in.ClientVersion, in.DeviceName)

	metadata, err := scanMetadata(row)
	if err != nil {
		return nil, fmt.Errorf("upsert sync metadata: %w", err)
	}

	// Commit the transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return metadata, nil
}

func (r *syncRepo) DeleteSnapshot(ctx context.Context, userID string, fileType models.FileType) (bool, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		DELETE FROM sync_data
		WHERE user_id = $1 AND file_type = $2
	`, userID, fileType.String())
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM sync_metadata
		WHERE user_id = $1 AND file_type = $2
	`, userID, fileType.String())
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMetadata(row pgx.Row) (*models.SyncMetadata, error) {
	var (
		metadata models.SyncMetadata
		fileName string
	)
	err := row.Scan(
		&metadata.ID,
		&metadata.UserID,
		&fileName,
		&metadata.LastSyncTime,
		&metadata.LastSyncedByDeviceID,
		&metadata.LastSyncedAt,
		&metadata.ClientVersion,
		&metadata.DeviceName,
		&metadata.TotalSyncs,
		&metadata.CreatedAt,
		&metadata.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if metadata.FileType, err = models.ParseFileType(fileName); err != nil {
		return nil, err
	}
	return &metadata, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/otel"
)

// AvatarService implements avatar.Service on SQLite
type AvatarService struct {
	store *Store
}

var _ avatar.Service = (*AvatarService)(nil)

// SetAppearance stores the record as JSON, replacing the previous one
func (a *AvatarService) SetAppearance(ctx context.Context, id uuid.UUID, record *appearance.Record) (err error) {
	if record == nil {
		return errors.New("appearance record is required")
	}
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.avatar.SetAppearance",
		tracerAttrs(otel.AttrParticipantID.String(id.String()), otel.AttrSerial.Int(record.Serial)))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode appearance: %w", err)
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO avatar_appearance (participant_id, record, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(participant_id) DO UPDATE SET
    record = excluded.record,
    updated_at = excluded.updated_at`,
		id.String(), string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store appearance for %s: %w", id, err)
	}
	return nil
}

// GetAvatar loads the stored appearance and avatar values. A participant with only
// values stored yields Data with a nil Appearance.
func (a *AvatarService) GetAvatar(ctx context.Context, id uuid.UUID) (data *avatar.Data, err error) {
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.avatar.GetAvatar",
		tracerAttrs(otel.AttrParticipantID.String(id.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return nil, err
	}

	out := &avatar.Data{Values: make(map[string]string)}
	found := false

	var blob string
	err = db.QueryRowContext(ctx,
		`SELECT record FROM avatar_appearance WHERE participant_id = ?`, id.String(),
	).Scan(&blob)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to load appearance for %s: %w", id, err)
	default:
		found = true
		rec := &appearance.Record{}
		if err := json.Unmarshal([]byte(blob), rec); err != nil {
			return nil, fmt.Errorf("failed to decode appearance for %s: %w", id, err)
		}
		out.Appearance = rec
	}

	rows, err := db.QueryContext(ctx,
		`SELECT name, value FROM avatar_value WHERE participant_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load avatar values for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to read avatar value: %w", err)
		}
		out.Values[name] = value
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read avatar values: %w", err)
	}

	if !found {
		return nil, avatar.ErrNotFound
	}
	return out, nil
}

// CacheWearableData stores the encoded bake cache index as an avatar value
func (a *AvatarService) CacheWearableData(ctx context.Context, id uuid.UUID, index *appearance.CacheIndex) (err error) {
	if index == nil {
		return errors.New("cache index is required")
	}
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.avatar.CacheWearableData",
		tracerAttrs(otel.AttrParticipantID.String(id.String()), otel.AttrResultCount.Int(index.Len())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return err
	}
	blob, err := avatar.EncodeCacheIndex(index)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO avatar_value (participant_id, name, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(participant_id, name) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`,
		id.String(), appearance.CachedWearablesKey, blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cached wearables for %s: %w", id, err)
	}
	return nil
}

package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ErrChecksumMismatch is returned when a stored record fails verification.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// SlotInfo describes one stored snapshot without its payload.
type SlotInfo struct {
	ID         uuid.UUID
	Slot       string
	Version    int32
	ShapeCount int32
	SceneID    int32
	SavedAt    time.Time
}

// SlotRepo keeps snapshots in the save_slots table. Every Save inserts a
// new row; Load returns the newest row of a slot.
type SlotRepo struct {
	db  *DB
	log *zap.Logger
}

func NewSlotRepo(db *DB, log *zap.Logger) *SlotRepo {
	return &SlotRepo{db: db, log: log}
}

func checksum(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

func (r *SlotRepo) Save(ctx context.Context, slot string, data []byte) error {
	h, err := PeekHeader(data, r.log)
	if err != nil {
		return fmt.Errorf("inspect record: %w", err)
	}
	id := uuid.New()
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO save_slots (id, slot, version, shape_count, scene_id, checksum, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, slot, h.Version, h.ShapeCount, h.State.SceneID, checksum(data), data,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", slot, err)
	}
	r.log.Debug("snapshot stored",
		zap.String("slot", slot),
		zap.String("id", id.String()),
		zap.Int("bytes", len(data)),
	)
	return nil
}

func (r *SlotRepo) Load(ctx context.Context, slot string) ([]byte, error) {
	var (
		id   uuid.UUID
		sum  []byte
		data []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, checksum, data FROM save_slots
		 WHERE slot = $1 ORDER BY saved_at DESC LIMIT 1`, slot,
	).Scan(&id, &sum, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", slot, err)
	}
	if !bytes.Equal(sum, checksum(data)) {
		return nil, fmt.Errorf("%w: slot %s row %s", ErrChecksumMismatch, slot, id)
	}
	return data, nil
}

// History lists the newest snapshots of a slot, newest first.
func (r *SlotRepo) History(ctx context.Context, slot string, limit int) ([]SlotInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, slot, version, shape_count, scene_id, saved_at FROM save_slots
		 WHERE slot = $1 ORDER BY saved_at DESC LIMIT $2`, slot, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotInfo
	for rows.Next() {
		var s SlotInfo
		if err := rows.Scan(&s.ID, &s.Slot, &s.Version, &s.ShapeCount, &s.SceneID, &s.SavedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Prune deletes all but the newest keep snapshots of a slot.
func (r *SlotRepo) Prune(ctx context.Context, slot string, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM save_slots WHERE slot = $1 AND id NOT IN (
		     SELECT id FROM save_slots WHERE slot = $1 ORDER BY saved_at DESC LIMIT $2
		 )`, slot, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", slot, err)
	}
	return tag.RowsAffected(), nil
}

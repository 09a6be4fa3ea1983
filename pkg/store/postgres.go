package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentalline/voicecore/pkg/conversation"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and verifies it.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Pool exposes the underlying pool for migrations and shutdown.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

// Close releases the pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) CreateCall(ctx context.Context, call Call) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO calls (id, channel, started_at, status) VALUES ($1, $2, $3, $4)`,
		call.ID, call.Channel, call.StartedAt, call.Status)
	if err != nil {
		return fmt.Errorf("create call: %w", err)
	}
	return nil
}

func (p *Postgres) FinishCall(ctx context.Context, id string, endedAt time.Time, durationSeconds int, summary, status string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE calls SET ended_at = $2, duration_seconds = $3, summary = $4, status = $5 WHERE id = $1`,
		id, endedAt, durationSeconds, summary, status)
	if err != nil {
		return fmt.Errorf("finish call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AppendTranscript(ctx context.Context, callID string, turns []conversation.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	batchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := p.pool.Begin(batchCtx)
	if err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	defer tx.Rollback(batchCtx)

	for i, turn := range turns {
		if _, err := tx.Exec(batchCtx,
			`INSERT INTO transcript_turns (call_id, seq, role, text, spoken_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (call_id, seq) DO NOTHING`,
			callID, i, string(turn.Role), turn.Text, turn.At); err != nil {
			return fmt.Errorf("append transcript turn %d: %w", i, err)
		}
	}
	if err := tx.Commit(batchCtx); err != nil {
		return fmt.Errorf("append transcript commit: %w", err)
	}
	return nil
}

func (p *Postgres) CreateAppointment(ctx context.Context, appt Appointment) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO appointments (id, call_id, patient_name, phone, email, concern, start_at, status, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		appt.ID, appt.CallID, appt.PatientName, appt.Phone, appt.Email, appt.Concern,
		appt.StartAt, appt.Status, appt.Source, appt.CreatedAt)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteAppointment(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

func (p *Postgres) SlotAvailable(ctx context.Context, startAt time.Time) (bool, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM slots WHERE start_at = $1 AND status = 'reserved'`, startAt).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("slot available: %w", err)
	}
	return count == 0, nil
}

// ReserveSlot wins or loses atomically on the slots unique index: the insert
// conflicts for every caller but the first.
func (p *Postgres) ReserveSlot(ctx context.Context, startAt time.Time) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO slots (start_at, status, reserved_at) VALUES ($1, 'reserved', now())
		 ON CONFLICT (start_at) DO NOTHING`, startAt)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) ReleaseSlot(ctx context.Context, startAt time.Time) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM slots WHERE start_at = $1`, startAt)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)

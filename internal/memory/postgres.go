package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the memory record in PostgreSQL, one row per profile.
type PostgresStore struct {
	pool    *pgxpool.Pool
	profile string
}

func NewPostgresStore(ctx context.Context, databaseURL, profile string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	if profile == "" {
		profile = "default"
	}
	return &PostgresStore{pool: pool, profile: profile}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_memory (
			profile_id TEXT PRIMARY KEY,
			last_app TEXT,
			history JSONB NOT NULL DEFAULT '[]'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	var (
		lastApp *string
		raw     []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT last_app, history FROM conversation_memory WHERE profile_id=$1`,
		s.profile,
	).Scan(&lastApp, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{History: []Exchange{}}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load memory row: %w", err)
	}

	st := State{LastApp: lastApp}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &st.History); err != nil {
			return State{}, fmt.Errorf("decode memory history: %w", err)
		}
	}
	return st.normalize(), nil
}

func (s *PostgresStore) Save(ctx context.Context, state State) error {
	state = state.normalize()
	raw, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("encode memory history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversation_memory (profile_id, last_app, history, updated_at)
		 VALUES ($1, $2, $3::jsonb, now())
		 ON CONFLICT (profile_id) DO UPDATE
		 SET last_app = EXCLUDED.last_app, history = EXCLUDED.history, updated_at = now()`,
		s.profile,
		state.LastApp,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("save memory row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

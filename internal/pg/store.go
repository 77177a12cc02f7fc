package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"

	"pflist/internal/platform"
)

// Store — platform.RecordStore поверх pflist.records
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy io.Reader
}

var _ platform.RecordStore = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Store{db: db, entropy: ulid.Monotonic(src, 0)}
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) List(ctx context.Context, object string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`select "id", "data" from `+recordsTable+` where "object" = $1 order by "seq"`, object)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		rec, err := decodeData(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (string, map[string]any, error) {
	var object string
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`select "object", "data" from `+recordsTable+` where "id" = $1`, id).Scan(&object, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, platform.ErrNotFound
	}
	if err != nil {
		return "", nil, err
	}
	rec, err := decodeData(id, raw)
	return object, rec, err
}

func (s *Store) Insert(ctx context.Context, object string, data map[string]any) (string, error) {
	id, _ := data["Id"].(string)
	if id == "" {
		id = s.newID()
	}
	raw, err := encodeData(data)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into `+recordsTable+` ("id", "object", "data") values ($1, $2, $3::jsonb)`, id, object, raw)
	if err != nil {
		// unique_violation (23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%s %s: %w", object, id, platform.ErrConflict)
		}
		return "", err
	}
	return id, nil
}

// Update: jsonb_strip_nulls убирает поля, которым пришёл null
func (s *Store) Update(ctx context.Context, id string, fields map[string]any) error {
	raw, err := encodeData(fields)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`update `+recordsTable+`
		    set "data" = jsonb_strip_nulls("data" || $2::jsonb),
		        "version" = "version" + 1,
		        "updated_at" = now()
		  where "id" = $1`, id, raw)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return platform.ErrNotFound
	}
	return nil
}

func encodeData(data map[string]any) (string, error) {
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if k != "Id" {
			clean[k] = v
		}
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeData(id string, raw []byte) (map[string]any, error) {
	rec := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
	}
	rec["Id"] = id
	return rec, nil
}

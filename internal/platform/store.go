package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"pflist/internal/catalog"
)

var ErrConflict = errors.New("record already exists")

// RecordStore — хранилище записей платформы. Записи отдаются копиями, всегда с полем Id.
type RecordStore interface {
	List(ctx context.Context, object string) ([]map[string]any, error)
	Get(ctx context.Context, id string) (object string, rec map[string]any, err error)
	// Insert сохраняет запись; Id берётся из data, иначе генерируется
	Insert(ctx context.Context, object string, data map[string]any) (string, error)
	// Update пишет поля поверх существующей записи; nil очищает поле
	Update(ctx context.Context, id string, fields map[string]any) error
}

type memRecord struct {
	object    string
	seq       int64
	version   int64
	updatedAt time.Time
	data      map[string]any
}

// MemoryStore — RecordStore в памяти процесса
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*memRecord
	seq     int64
	entropy io.Reader
}

func NewMemoryStore() *MemoryStore {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &MemoryStore{
		byID:    make(map[string]*memRecord),
		entropy: ulid.Monotonic(src, 0),
	}
}

// newID вызывается под mu: Monotonic-источник не потокобезопасен
func (s *MemoryStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *MemoryStore) List(_ context.Context, object string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*memRecord
	var ids []string
	for id, r := range s.byID {
		if r.object == object {
			recs = append(recs, r)
			ids = append(ids, id)
		}
	}
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return recs[idx[a]].seq < recs[idx[b]].seq })

	out := make([]map[string]any, 0, len(recs))
	for _, i := range idx {
		out = append(out, withID(ids[i], recs[i].data))
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (string, map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return "", nil, ErrNotFound
	}
	return r.object, withID(id, r.data), nil
}

func (s *MemoryStore) Insert(_ context.Context, object string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := data["Id"].(string)
	if id == "" {
		id = s.newID()
	}
	if _, exists := s.byID[id]; exists {
		return "", fmt.Errorf("%s %s: %w", object, id, ErrConflict)
	}
	s.seq++
	s.byID[id] = &memRecord{
		object:    object,
		seq:       s.seq,
		version:   1,
		updatedAt: time.Now().UTC(),
		data:      stripID(data),
	}
	return id, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	next := make(map[string]any, len(r.data)+len(fields))
	for k, v := range r.data {
		next[k] = v
	}
	for k, v := range stripID(fields) {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}
	r.data = next
	r.version++
	r.updatedAt = time.Now().UTC()
	return nil
}

func withID(id string, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["Id"] = id
	return out
}

func stripID(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if k != "Id" {
			out[k] = v
		}
	}
	return out
}

// Seed загружает записи из каталога. Уже существующие Id пропускаются,
// поэтому повторный вызов (reload) не дублирует данные.
func Seed(ctx context.Context, store RecordStore, cat *catalog.Catalog) (int, error) {
	n := 0
	for _, object := range cat.ObjectNames() {
		for _, rec := range cat.Seed[object] {
			if _, err := store.Insert(ctx, object, rec); err != nil {
				if errors.Is(err, ErrConflict) {
					continue
				}
				return n, fmt.Errorf("seed %s: %w", object, err)
			}
			n++
		}
	}
	return n, nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pflist/internal/catalog"
	"pflist/internal/grid"
	"pflist/internal/platform"
)

const (
	defaultCardTitle    = "List"
	defaultRowsDivClass = "row slds-m-horizontal_small"
)

// Version — версия компонента, отдаётся в снимке списка.
// При сборке переопределяется: -ldflags "-X pflist/internal/api.Version=..."
var Version = "PerfectionList 0.1.5.2"

// Session — один смонтированный список: определение + состояние отображения.
// Все изменения View идут под mu; вызовы платформы — без блокировки.
type Session struct {
	mu         sync.Mutex
	def        catalog.ListDef
	view       *grid.View
	listViewID string
}

func newSession(def catalog.ListDef) *Session {
	return &Session{def: def, view: grid.NewView(), listViewID: def.SelectedListViewID}
}

func (s *Session) editable() grid.EditableFields {
	return grid.ParseEditableFields(s.def.EditableFieldsString, strings.EqualFold(s.def.EditableMatch, "substring"))
}

// predefined — список задан целиком конфигурацией, выбор представления не показывается
func (s *Session) predefined() bool {
	return s.def.WhereClause != "" || s.def.ChildRelationship != "" || s.def.SelectedListViewID != ""
}

// request вызывается под mu
func (s *Session) request() *platform.FetchRequest {
	return &platform.FetchRequest{
		SObjectName:        s.def.SObjectName,
		FieldsString:       s.def.FieldsString,
		SelectedListViewID: s.listViewID,
		ParentID:           s.def.ParentID,
		ChildRelationship:  s.def.ChildRelationship,
		WhereClause:        s.def.WhereClause,
		OrderByField:       s.def.OrderByField,
		RowLimit:           s.def.RowLimit,
	}
}

// Registry держит сессии всех списков каталога
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	svc platform.Service
	log *slog.Logger
	now func() time.Time
}

func NewRegistry(defs []catalog.ListDef, svc platform.Service, log *slog.Logger) *Registry {
	r := &Registry{svc: svc, log: log, now: time.Now}
	r.Reset(defs)
	return r
}

// Reset пересоздаёт сессии по новым определениям (после перезагрузки каталога)
func (r *Registry) Reset(defs []catalog.ListDef) {
	sessions := make(map[string]*Session, len(defs))
	order := make([]string, 0, len(defs))
	for _, d := range defs {
		sessions[d.Name] = newSession(d)
		order = append(order, d.Name)
	}
	r.mu.Lock()
	r.sessions = sessions
	r.order = order
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

func (r *Registry) Defs() []catalog.ListDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.ListDef, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.sessions[n].def)
	}
	return out
}

// Fetch запрашивает данные и применяет их, если за время запроса не начался новый.
// Ошибка платформы сохраняется в сессии и возвращается.
func (r *Registry) Fetch(ctx context.Context, s *Session) error {
	s.mu.Lock()
	gen := s.view.BeginFetch()
	req := s.request()
	s.mu.Unlock()

	resp, err := r.svc.InitList(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.view.Fail(gen, err) {
			r.log.Error("initPFList failed", "list", s.def.Name, "object", req.SObjectName, "err", err)
		}
		return err
	}
	res := grid.Normalize(resp, s.def.SObjectName, s.editable())
	if !s.view.Apply(gen, res, r.now()) {
		r.log.Debug("stale fetch dropped", "list", s.def.Name, "gen", gen)
		return nil
	}
	r.log.Debug("list loaded", "list", s.def.Name, "records", len(res.Rows))
	return nil
}

// EnsureLoaded — первая загрузка при первом обращении к списку
func (r *Registry) EnsureLoaded(ctx context.Context, s *Session) error {
	s.mu.Lock()
	loaded := s.view.Loaded() || s.view.Err() != nil
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return r.Fetch(ctx, s)
}

// SelectListView меняет представление и перезапрашивает данные
func (r *Registry) SelectListView(ctx context.Context, s *Session, id string) error {
	s.mu.Lock()
	s.listViewID = id
	s.mu.Unlock()
	return r.Fetch(ctx, s)
}

// SaveOutcome — итог сохранения черновиков
type SaveOutcome struct {
	Saved  []string `json:"saved"`
	Failed string   `json:"failed,omitempty"`
}

// Save сохраняет черновики по одному. Позиции черновиков разрешаются по набору,
// который был на экране в момент сохранения. Первая ошибка платформы останавливает цикл.
func (r *Registry) Save(ctx context.Context, s *Session, drafts []map[string]any) (SaveOutcome, error) {
	out := SaveOutcome{Saved: []string{}}

	s.mu.Lock()
	prepared := make([]map[string]any, 0, len(drafts))
	for i, d := range drafts {
		rec, err := s.view.PrepareSave(d)
		if err != nil {
			s.mu.Unlock()
			return out, fmt.Errorf("draft %d: %w", i, err)
		}
		prepared = append(prepared, rec)
	}
	s.mu.Unlock()

	for _, rec := range prepared {
		payload, err := encodeRecord(rec)
		if err != nil {
			return out, err
		}
		res, err := r.svc.SaveRecord(ctx, &platform.SaveRequest{Record: payload})
		if err == nil && !res.Success {
			err = saveFailed(res)
		}
		id, _ := rec[grid.FieldID].(string)
		if err != nil {
			s.mu.Lock()
			s.view.Fail(0, err)
			s.mu.Unlock()
			r.log.Error("saveRecord failed", "list", s.def.Name, "id", id, "err", err)
			out.Failed = id
			return out, err
		}

		// платформа возвращает принятые значения уже приведёнными к типам полей
		accepted := rec
		if len(res.Record) > 0 {
			accepted = make(map[string]any, len(res.Record)+1)
			for k, v := range res.Record {
				accepted[k] = v
			}
			accepted[grid.FieldID] = rec[grid.FieldID]
		}

		s.mu.Lock()
		if !s.view.ApplySaved(accepted) {
			r.log.Debug("saved row is no longer loaded", "list", s.def.Name, "id", id)
		}
		s.mu.Unlock()
		out.Saved = append(out.Saved, id)
		r.log.Info("record saved", "list", s.def.Name, "id", id)
	}
	return out, nil
}

func saveFailed(res *platform.SaveResult) error {
	e := &platform.Error{Code: "SAVE_FAILED", Message: "record was not saved", Fields: res.Errors, Err: platform.ErrInvalid}
	if len(res.Errors) > 0 {
		e.Message = res.Errors[0].Message
	}
	return e
}

// Snapshot — всё, что нужно для отрисовки списка
type Snapshot struct {
	Name                string                `json:"name"`
	CardTitleLabel      string                `json:"cardTitleLabel"`
	ObjectName          string                `json:"sObjectName"`
	IconName            string                `json:"iconName"`
	RowsDivClassName    string                `json:"rowsDivClassName"`
	SearchBoxClassName  string                `json:"searchBoxWidth"`
	Columns             []grid.Column         `json:"columns"`
	GridColumns         []grid.GridColumn     `json:"dataTableColumns"`
	Records             []grid.Record         `json:"records"`
	State               grid.ViewState        `json:"state"`
	ListViewOptions     []grid.ListViewOption `json:"listViewOptions"`
	SelectedListViewID  string                `json:"selectedListViewId,omitempty"`
	ShowListViewOptions bool                  `json:"showListViewOptions"`
	Loaded              bool                  `json:"loaded"`
	QueryDateTime       *time.Time            `json:"queryDateTime,omitempty"`
	Error               string                `json:"error,omitempty"`
	Version             string                `json:"version"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Name:                s.def.Name,
		CardTitleLabel:      s.def.CardTitle,
		ObjectName:          s.def.SObjectName,
		IconName:            s.view.IconName(),
		RowsDivClassName:    s.def.RowsDivClass,
		Columns:             nonNil(s.view.Columns()),
		GridColumns:         nonNil(s.view.GridColumns()),
		Records:             nonNil(s.view.Displayed()),
		State:               s.view.State(),
		ListViewOptions:     nonNil(s.view.ListViewOptions()),
		SelectedListViewID:  s.listViewID,
		ShowListViewOptions: !s.predefined(),
		Loaded:              s.view.Loaded(),
		Version:             Version,
	}
	if snap.CardTitleLabel == "" {
		snap.CardTitleLabel = defaultCardTitle
	}
	if snap.RowsDivClassName == "" {
		snap.RowsDivClassName = defaultRowsDivClass
	}
	if snap.IconName == "" {
		snap.IconName = grid.IconName(s.def.SObjectName)
	}
	snap.SearchBoxClassName = grid.SearchBoxClassName(len(snap.Columns))
	if t := s.view.QueriedAt(); !t.IsZero() {
		snap.QueryDateTime = &t
	}
	if err := s.view.Err(); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// withView выполняет f над View под блокировкой сессии
func (s *Session) withView(f func(v *grid.View) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.view)
}

func encodeRecord(rec map[string]any) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(b), nil
}

var errNoDrafts = errors.New("draftValues is empty")

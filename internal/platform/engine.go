package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"pflist/internal/catalog"
)

const (
	DefaultRowLimit = 500
	MaxRowLimit     = 2000
)

// Engine обслуживает initPFList/saveRecord поверх каталога и хранилища
type Engine struct {
	mu    sync.RWMutex
	cat   *catalog.Catalog
	store RecordStore
	log   *slog.Logger
}

func NewEngine(cat *catalog.Catalog, store RecordStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cat: cat, store: store, log: log}
}

func (e *Engine) Catalog() *catalog.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cat
}

// SetCatalog подменяет каталог (после /api/admin/reload)
func (e *Engine) SetCatalog(c *catalog.Catalog) {
	e.mu.Lock()
	e.cat = c
	e.mu.Unlock()
}

func (e *Engine) Store() RecordStore { return e.store }

func (e *Engine) InitList(ctx context.Context, req *FetchRequest) (*FetchResponse, error) {
	cat := e.Catalog()

	obj, ok := cat.Object(req.SObjectName)
	if !ok {
		return nil, &Error{Code: "INVALID_TYPE", Message: fmt.Sprintf("sObject type '%s' is not supported", req.SObjectName), Err: ErrNotFound}
	}

	fields := e.selectFields(obj, req.FieldsString)

	var conds []filterCond
	if req.SelectedListViewID != "" {
		lv, ok := cat.ListView(obj.Name, req.SelectedListViewID)
		if !ok {
			return nil, &Error{Code: "INVALID_LIST_VIEW", Message: fmt.Sprintf("list view %s does not exist for %s", req.SelectedListViewID, obj.Name), Err: ErrNotFound}
		}
		c, err := parseWhere(obj, lv.Where)
		if err != nil {
			return nil, &Error{Code: "MALFORMED_QUERY", Message: err.Error(), Err: ErrInvalid}
		}
		conds = append(conds, c...)
	}
	c, err := parseWhere(obj, req.WhereClause)
	if err != nil {
		return nil, &Error{Code: "MALFORMED_QUERY", Message: err.Error(), Err: ErrInvalid}
	}
	conds = append(conds, c...)

	if req.ChildRelationship != "" {
		rel, _, ok := cat.ChildRelationship(req.ChildRelationship, obj.Name)
		if !ok {
			return nil, &Error{Code: "INVALID_FIELD", Message: fmt.Sprintf("didn't understand relationship '%s'", req.ChildRelationship), Err: ErrInvalid}
		}
		if strings.TrimSpace(req.ParentID) == "" {
			return nil, &Error{Code: "MISSING_ARGUMENT", Message: "parentId is required with childRelationship", Err: ErrInvalid}
		}
		f, _ := obj.Field(rel.Field)
		conds = append(conds, filterCond{field: f, op: "eq", vals: []string{req.ParentID}})
	}

	keys, err := parseOrderBy(obj, req.OrderByField)
	if err != nil {
		return nil, &Error{Code: "MALFORMED_QUERY", Message: err.Error(), Err: ErrInvalid}
	}

	all, err := e.store.List(ctx, obj.Name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", obj.Name, err)
	}
	matched := make([]map[string]any, 0, len(all))
	for _, rec := range all {
		if matchAll(rec, conds) {
			matched = append(matched, rec)
		}
	}
	sortRecords(matched, keys)

	limit := req.RowLimit
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if limit > MaxRowLimit {
		limit = MaxRowLimit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	related, err := e.loadRelated(ctx, cat, fields)
	if err != nil {
		return nil, err
	}

	resp := &FetchResponse{
		Columns:          make([]RawColumn, 0, len(fields)),
		Records:          make([]map[string]any, 0, len(matched)),
		ListViewsOptions: ListViewOptions{},
	}
	for _, f := range fields {
		resp.Columns = append(resp.Columns, RawColumn{
			Name:                   f.Name,
			Label:                  f.Label(),
			Type:                   f.RendererType(),
			DisplayType:            f.DisplayType(),
			RelatedRecordFieldName: f.RelatedRecordFieldName(),
		})
	}
	for _, rec := range matched {
		resp.Records = append(resp.Records, project(rec, fields, related))
	}
	for _, lv := range cat.ListViewsOf(obj.Name) {
		resp.ListViewsOptions = append(resp.ListViewsOptions, ListView{ID: lv.ID, Name: lv.Name})
	}

	e.log.Debug("initPFList", "object", obj.Name, "fields", len(fields), "records", len(resp.Records), "total", len(all))
	return resp, nil
}

// selectFields: поля из fieldsString в заданном порядке; пусто — все поля объекта.
// Неизвестные имена пропускаются.
func (e *Engine) selectFields(obj *catalog.Object, fieldsString string) []catalog.Field {
	names := catalog.SplitNames(fieldsString)
	if len(names) == 0 {
		return append([]catalog.Field(nil), obj.Fields...)
	}
	seen := map[string]bool{}
	out := make([]catalog.Field, 0, len(names))
	for _, n := range names {
		f, ok := obj.Field(n)
		if !ok {
			e.log.Warn("unknown field skipped", "object", obj.Name, "field", n)
			continue
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}

// loadRelated читает целевые объекты ref-полей: объект -> id -> запись
func (e *Engine) loadRelated(ctx context.Context, cat *catalog.Catalog, fields []catalog.Field) (map[string]map[string]map[string]any, error) {
	out := map[string]map[string]map[string]any{}
	for _, f := range fields {
		if f.Type != "ref" {
			continue
		}
		target, ok := cat.NormalizeObjectName(f.RefTarget)
		if !ok {
			continue
		}
		if _, done := out[target]; done {
			continue
		}
		recs, err := e.store.List(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", target, err)
		}
		byID := make(map[string]map[string]any, len(recs))
		for _, r := range recs {
			if id, _ := r["Id"].(string); id != "" {
				byID[id] = r
			}
		}
		out[target] = byID
	}
	return out, nil
}

// project оставляет Id и выбранные поля; для ссылок вкладывает связанную запись {Id, Name}
func project(rec map[string]any, fields []catalog.Field, related map[string]map[string]map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+2)
	out["Id"] = rec["Id"]
	for _, f := range fields {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			continue
		}
		out[f.Name] = v
		if f.Type != "ref" {
			continue
		}
		id, _ := v.(string)
		for obj, byID := range related {
			if !strings.EqualFold(obj, f.RefTarget) {
				continue
			}
			if target, ok := byID[id]; ok {
				nf := f.NameField()
				out[f.Relationship()] = map[string]any{"Id": id, nf: target[nf]}
			}
		}
	}
	return out
}

func (e *Engine) SaveRecord(ctx context.Context, req *SaveRequest) (*SaveResult, error) {
	dec := json.NewDecoder(strings.NewReader(req.Record))
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, &Error{Code: "JSON_PARSER_ERROR", Message: "record must be a JSON object", Err: ErrInvalid}
	}

	id, _ := payload["Id"].(string)
	if id == "" {
		return nil, &Error{Code: "MISSING_ARGUMENT", Message: "Id not specified in an update call", Err: ErrInvalid}
	}

	object, _, err := e.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, &Error{Code: "ENTITY_IS_DELETED", Message: fmt.Sprintf("record %s does not exist", id), Err: ErrNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	cat := e.Catalog()
	obj, ok := cat.Object(object)
	if !ok {
		return nil, &Error{Code: "INVALID_TYPE", Message: fmt.Sprintf("sObject type '%s' is not supported", object), Err: ErrNotFound}
	}

	update, errs := e.validate(ctx, obj, payload)
	if len(errs) > 0 {
		return nil, &Error{
			Code:    "FIELD_INTEGRITY_EXCEPTION",
			Message: fmt.Sprintf("%s: %s", errs[0].Field, errs[0].Message),
			Fields:  errs,
			Err:     ErrInvalid,
		}
	}
	if len(update) > 0 {
		if err := e.store.Update(ctx, id, update); err != nil {
			return nil, fmt.Errorf("update %s: %w", id, err)
		}
	}
	e.log.Info("record saved", "object", obj.Name, "id", id, "fields", len(update))
	accepted := make(map[string]any, len(update)+1)
	for k, v := range update {
		accepted[k] = v
	}
	accepted["Id"] = id
	return &SaveResult{ID: id, Success: true, Record: accepted}, nil
}

func (e *Engine) validate(ctx context.Context, obj *catalog.Object, payload map[string]any) (map[string]any, []FieldError) {
	var errs []FieldError
	update := map[string]any{}

	for _, k := range sortedKeys(payload) {
		if k == "Id" {
			continue
		}
		f, ok := obj.Field(k)
		if !ok {
			errs = append(errs, ferr(CodeUnknownField, k, "unknown field"))
			continue
		}
		if f.ReadOnly() {
			errs = append(errs, ferr(CodeReadOnly, f.Name, "field is read-only"))
			continue
		}
		v, err := coerceValue(f, payload[k])
		if err != nil {
			code := CodeTypeMismatch
			if f.Type == "enum" || f.ElemType == "enum" {
				code = CodeEnumInvalid
			}
			errs = append(errs, ferr(code, f.Name, err.Error()))
			continue
		}
		if (v == nil || v == "") && f.Required() {
			errs = append(errs, ferr(CodeRequired, f.Name, "required"))
			continue
		}
		if f.Type == "ref" && v != nil {
			target, _, err := e.store.Get(ctx, v.(string))
			if err != nil || !strings.EqualFold(target, f.RefTarget) {
				errs = append(errs, ferr(CodeRefNotFound, f.Name, fmt.Sprintf("referenced %s not found", f.RefTarget)))
				continue
			}
		}
		update[f.Name] = v
	}
	return update, errs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

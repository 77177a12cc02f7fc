package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Service — два вызова платформы, через которые список получает и сохраняет записи.
type Service interface {
	InitList(ctx context.Context, req *FetchRequest) (*FetchResponse, error)
	SaveRecord(ctx context.Context, req *SaveRequest) (*SaveResult, error)
}

// FetchRequest — параметры initPFList
type FetchRequest struct {
	SObjectName        string `json:"sObjectName"`
	FieldsString       string `json:"fieldsString"`
	SelectedListViewID string `json:"selectedListViewId,omitempty"`
	ParentID           string `json:"parentId,omitempty"`
	ChildRelationship  string `json:"childRelationship,omitempty"`
	WhereClause        string `json:"whereClause,omitempty"`
	OrderByField       string `json:"orderByField,omitempty"`
	RowLimit           int    `json:"rowLimit,omitempty"`
}

// RawColumn — описание поля в ответе initPFList
type RawColumn struct {
	Name                   string `json:"name"`
	Label                  string `json:"label"`
	Type                   string `json:"type"`
	DisplayType            string `json:"displayType"`
	RelatedRecordFieldName string `json:"relatedRecordFieldName,omitempty"`
}

type ListView struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// ListViewOptions — упорядоченный словарь id -> {Id, Name}.
// На проводе это JSON-объект; порядок ключей сохраняется.
type ListViewOptions []ListView

type FetchResponse struct {
	Columns          []RawColumn      `json:"columns"`
	Records          []map[string]any `json:"records"`
	ListViewsOptions ListViewOptions  `json:"listViewsOptions"`
}

// SaveRequest — record содержит JSON-сериализованный объект (Id + изменённые поля)
type SaveRequest struct {
	Record string `json:"record"`
}

type SaveResult struct {
	ID      string         `json:"id"`
	Success bool           `json:"success"`
	Errors  []FieldError   `json:"errors,omitempty"`
	// Record — принятые поля после приведения типов (Id + сохранённые значения)
	Record  map[string]any `json:"record,omitempty"`
}

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок полей
const (
	CodeRequired     = "required"
	CodeTypeMismatch = "type_mismatch"
	CodeEnumInvalid  = "enum_invalid"
	CodeRefNotFound  = "ref_not_found"
	CodeReadOnly     = "readonly_field"
	CodeUnknownField = "unknown_field"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
)

// Error — непрозрачная ошибка вызова платформы. Список хранит её как есть и показывает пользователю.
type Error struct {
	Code    string       `json:"errorCode,omitempty"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

func (o ListViewOptions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lv := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(lv.ID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(lv)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *ListViewOptions) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("listViewsOptions: expected object, got %v", tok)
	}
	out := ListViewOptions{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var lv ListView
		if err := dec.Decode(&lv); err != nil {
			return fmt.Errorf("listViewsOptions[%s]: %w", key, err)
		}
		if lv.ID == "" {
			lv.ID = key
		}
		out = append(out, lv)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

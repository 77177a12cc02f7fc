package grid

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownColumn = errors.New("unknown column")

// ViewState — текущее состояние отображения, не сохраняется
type ViewState struct {
	GlobalFilterText string    `json:"filterText"`
	SortColumn       string    `json:"sortColumn"`
	SortDirection    Direction `json:"sortDirection"`
	Showing          int       `json:"showing"`
	Total            int       `json:"total"`
	FiltersVisible   bool      `json:"showFilters"`
}

// View держит строки, колонки и состояние одного списка.
// Методы не потокобезопасны — вызывающий сериализует доступ.
type View struct {
	result    Result
	rows      []Record
	filtered  []Record
	columns   []Column
	state     ViewState
	queriedAt time.Time
	err       error
	gen       uint64
	loaded    bool
}

func NewView() *View {
	return &View{}
}

// BeginFetch выдаёт номер поколения для очередного запроса данных
func (v *View) BeginFetch() uint64 {
	v.gen++
	return v.gen
}

// Apply загружает результат запроса поколения gen. Устаревший результат
// (после него был начат новый запрос) отбрасывается, возвращается false.
// Глобальный поиск, фильтры колонок (по имени) и сортировка переносятся на новые данные.
func (v *View) Apply(gen uint64, res Result, at time.Time) bool {
	if gen != v.gen {
		return false
	}
	carried := make(map[string]Column)
	for _, c := range v.columns {
		if c.FilterText != "" {
			carried[c.Name] = c
		}
	}
	v.result = res
	v.rows = res.Rows
	v.columns = make([]Column, len(res.Columns))
	for i, c := range res.Columns {
		if prev, ok := carried[c.Name]; ok {
			c.FilterText = prev.FilterText
			c.Class = prev.Class
		}
		v.columns[i] = c
	}
	v.queriedAt = at
	v.err = nil
	v.loaded = true
	v.state.Total = len(v.rows)

	if _, ok := findColumn(v.columns, v.state.SortColumn); ok && v.state.SortColumn != "" {
		v.sortBy(v.state.SortColumn, v.state.SortDirection)
		return true
	}
	v.state.SortColumn, v.state.SortDirection = "", ""
	v.refilter()
	return true
}

// Fail запоминает ошибку вызова платформы для показа пользователю
func (v *View) Fail(gen uint64, err error) bool {
	if gen != 0 && gen != v.gen {
		return false
	}
	v.err = err
	return true
}

func (v *View) Err() error { return v.err }

func (v *View) Search(text string) {
	v.state.GlobalFilterText = text
	v.refilter()
}

func (v *View) SetColumnFilter(name, text string) error {
	cols, ok := withFilterText(v.columns, name, text)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	v.columns = cols
	v.refilter()
	return nil
}

// ToggleSort — клик по заголовку колонки
func (v *View) ToggleSort(column string) (Direction, error) {
	dir := NextDirection(v.state.SortColumn, v.state.SortDirection, column)
	if err := v.SortBy(column, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// SortBy — сортировка с явным направлением (от табличного рендерера)
func (v *View) SortBy(column string, dir Direction) error {
	if _, ok := findColumn(v.columns, column); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	v.sortBy(column, dir)
	return nil
}

func (v *View) sortBy(column string, dir Direction) {
	v.state.SortColumn = column
	v.state.SortDirection = dir
	v.rows = Sort(v.rows, column, dir)
	v.columns = withSortIcons(v.columns, column, dir)
	v.refilter()
}

func (v *View) ToggleFilters() bool {
	v.state.FiltersVisible = !v.state.FiltersVisible
	return v.state.FiltersVisible
}

// PrepareSave сопоставляет черновик с отображаемой строкой
func (v *View) PrepareSave(draft map[string]any) (map[string]any, error) {
	return PrepareEdit(draft, v.filtered)
}

// ApplySaved накладывает принятые платформой поля на строку с тем же Id.
// Строка заменяется копией, после чего сортировка и фильтры пересчитываются.
func (v *View) ApplySaved(saved map[string]any) bool {
	id, _ := stringify(saved[FieldID])
	if id == "" {
		return false
	}
	for i, r := range v.rows {
		if r.ID() != id {
			continue
		}
		patched := make(Record, len(r)+len(saved))
		for k, val := range r {
			patched[k] = val
		}
		for k, val := range saved {
			if col, ok := findColumn(v.columns, k); ok {
				val = coerceCell(col.DisplayType, val)
			}
			patched[k] = val
		}
		rows := make([]Record, len(v.rows))
		copy(rows, v.rows)
		rows[i] = patched
		v.rows = rows
		if v.state.SortColumn != "" {
			v.sortBy(v.state.SortColumn, v.state.SortDirection)
		} else {
			v.refilter()
		}
		return true
	}
	return false
}

func (v *View) refilter() {
	v.filtered = Filter(v.rows, v.columns, v.state.GlobalFilterText)
	v.state.Showing = len(v.filtered)
}

func (v *View) Loaded() bool { return v.loaded }

func (v *View) State() ViewState { return v.state }

func (v *View) Columns() []Column { return v.columns }

func (v *View) Rows() []Record { return v.rows }

// Displayed — строки после фильтров, в порядке последней сортировки
func (v *View) Displayed() []Record { return v.filtered }

func (v *View) QueriedAt() time.Time { return v.queriedAt }

func (v *View) GridColumns() []GridColumn { return v.result.GridColumns }

func (v *View) ListViewOptions() []ListViewOption { return v.result.ListViewOptions }

func (v *View) IconName() string { return v.result.IconName }

package grid

import (
	"strconv"
	"strings"
)

// Типы отображения (displayType) полей платформы
const (
	DisplayString        = "STRING"
	DisplayTextArea      = "TEXTAREA"
	DisplayEmail         = "EMAIL"
	DisplayPhone         = "PHONE"
	DisplayPicklist      = "PICKLIST"
	DisplayMultiPicklist = "MULTIPICKLIST"
	DisplayAddress       = "ADDRESS"
	DisplayCombobox      = "COMBOBOX"
	DisplayID            = "ID"
	DisplayURL           = "URL"
	DisplayReference     = "REFERENCE"
	DisplayDate          = "DATE"
	DisplayDateTime      = "DATETIME"
	DisplayDouble        = "DOUBLE"
	DisplayPercent       = "PERCENT"
	DisplayCurrency      = "CURRENCY"
	DisplayInteger       = "INTEGER"
	DisplayLong          = "LONG"
	DisplayBoolean       = "BOOLEAN"
)

const (
	FieldID   = "Id"
	FieldLink = "link"
)

// Значки сортировки
const (
	IconSortNeutral = "utility:sort"
	IconSortAsc     = "utility:arrowup"
	IconSortDesc    = "utility:arrowdown"
)

const highlightClass = "blue"

// Column — отображаемое и фильтруемое поле списка
type Column struct {
	Name                   string `json:"name"`
	Label                  string `json:"label"`
	Type                   string `json:"type"`
	DisplayType            string `json:"displayType"`
	RelatedRecordFieldName string `json:"relatedRecordFieldName,omitempty"`
	Editable               bool   `json:"isEditable"`
	SortIconState          bool   `json:"iconState"`
	SortIconName           string `json:"iconName"`
	FilterText             string `json:"filterText"`
	ClassName              string `json:"className"`
	Class                  string `json:"class"`
}

// GridColumn — колонка для табличного рендерера
type GridColumn struct {
	Label     string `json:"label"`
	FieldName string `json:"fieldName"`
	Type      string `json:"type"`
	Sortable  bool   `json:"sortable"`
	Editable  bool   `json:"editable"`
}

type ListViewOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// EditableFields — конфигурация редактируемых полей ("Name,Phone").
// По умолчанию точное совпадение имени; substring=true воспроизводит
// старое поведение "строка конфигурации содержит имя поля".
type EditableFields struct {
	raw       string
	names     map[string]struct{}
	substring bool
}

func ParseEditableFields(raw string, substring bool) EditableFields {
	e := EditableFields{raw: raw, names: map[string]struct{}{}, substring: substring}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			e.names[p] = struct{}{}
		}
	}
	return e
}

func (e EditableFields) Contains(name string) bool {
	if name == "" {
		return false
	}
	if e.substring {
		return strings.Contains(e.raw, name)
	}
	_, ok := e.names[name]
	return ok
}

// ColumnClassName — класс ячейки: 1/n ширины, n ограничено 12 при числе колонок больше 8
func ColumnClassName(count int) string {
	n := count
	if n > 8 {
		n = 12
	}
	return "slds-m-right_xx-small slds-truncate slds-col cell slds-size_1-of-" + strconv.Itoa(n)
}

// SearchBoxClassName — ширина поля поиска по числу колонок
func SearchBoxClassName(count int) string {
	return "slds-m-bottom_xx-small slds-align_absolute-center slds-text-align_center slds-size_1-of-" + strconv.Itoa(count/2)
}

// IconName — значок объекта: для объектов с пространством имён ("ns__Obj__c") общий значок
func IconName(objectName string) string {
	if objectName == "" {
		return ""
	}
	if strings.Contains(objectName, "__") {
		return "standard:lightning_component"
	}
	return "standard:" + strings.ToLower(objectName)
}

func RecordLink(objectName, id string) string {
	return "/lightning/r/" + objectName + "/" + id + "/view"
}

func NewRecordLink(objectName string) string {
	return "/lightning/o/" + objectName + "/new"
}

// withFilterText возвращает новый набор колонок: у колонки name новый текст фильтра и подсветка,
// у остальных подсветка снята. Исходный срез не меняется.
func withFilterText(cols []Column, name, text string) ([]Column, bool) {
	out := make([]Column, len(cols))
	found := false
	for i, c := range cols {
		c.Class = ""
		if c.Name == name {
			c.FilterText = text
			c.Class = highlightClass
			found = true
		}
		out[i] = c
	}
	return out, found
}

// withSortIcons — ровно одна колонка (key) получает стрелку направления, остальные нейтральный значок
func withSortIcons(cols []Column, key string, dir Direction) []Column {
	icon := IconSortAsc
	if dir == Desc {
		icon = IconSortDesc
	}
	out := make([]Column, len(cols))
	marked := false
	for i, c := range cols {
		c.SortIconName = IconSortNeutral
		c.SortIconState = false
		if c.Name == key && !marked {
			c.SortIconName = icon
			c.SortIconState = true
			marked = true
		}
		out[i] = c
	}
	return out
}

func findColumn(cols []Column, name string) (Column, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

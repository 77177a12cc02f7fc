package catalog

import (
	"sort"
	"strings"
)

// Object описывает объект платформы (из *.dsl)
type Object struct {
	Name     string
	Fields   []Field
	Children []ChildRelationship
}

// Field описывает поле объекта
type Field struct {
	Name      string
	Type      string            // string, text, email, phone, url, address, enum, int, float, money, percent, bool, date, datetime, ref, id, array
	ElemType  string            // для array[...]
	Enum      []string          // значения enum
	RefTarget string            // целевой объект для ref[...]
	Options   map[string]string // label, required, readonly, relationship, namefield
}

// ChildRelationship — "Contacts: Contact.AccountId": дочерние записи Contact, у которых AccountId = родитель
type ChildRelationship struct {
	Name   string
	Object string
	Field  string
}

// ListDef — конфигурация одного списка (то, что компонент получает при монтировании)
type ListDef struct {
	Name                 string `yaml:"name" json:"name"`
	CardTitle            string `yaml:"cardTitle" json:"cardTitle"`
	SObjectName          string `yaml:"sObjectName" json:"sObjectName"`
	FieldsString         string `yaml:"fieldsString" json:"fieldsString"`
	EditableFieldsString string `yaml:"editableFieldsString" json:"editableFieldsString"`
	SelectedListViewID   string `yaml:"selectedListViewId,omitempty" json:"selectedListViewId,omitempty"`
	ChildRelationship    string `yaml:"childRelationship,omitempty" json:"childRelationship,omitempty"`
	ParentID             string `yaml:"parentId,omitempty" json:"parentId,omitempty"`
	WhereClause          string `yaml:"whereClause,omitempty" json:"whereClause,omitempty"`
	OrderByField         string `yaml:"orderByField,omitempty" json:"orderByField,omitempty"`
	RowLimit             int    `yaml:"rowLimit,omitempty" json:"rowLimit,omitempty"`
	RowsDivClass         string `yaml:"rowsDivClass,omitempty" json:"rowsDivClass,omitempty"`
	EditableMatch        string `yaml:"editableMatch,omitempty" json:"editableMatch,omitempty"` // "exact" (default) | "substring"
}

// ListViewDef — именованное представление объекта: условия в синтаксисе where (field__op=value&...)
type ListViewDef struct {
	ID     string `yaml:"id"`
	Object string `yaml:"object"`
	Name   string `yaml:"name"`
	Where  string `yaml:"where,omitempty"`
}

// Catalog — всё, что читается с диска при старте и по /api/admin/reload
type Catalog struct {
	Objects   map[string]*Object
	Lists     []ListDef
	ListViews []ListViewDef
	Seed      map[string][]map[string]any // объект -> записи
}

// ObjectNames — имена объектов по алфавиту
func (c *Catalog) ObjectNames() []string {
	out := make([]string, 0, len(c.Objects))
	for n := range c.Objects {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NormalizeObjectName возвращает каноническое имя объекта: сначала точное совпадение,
// потом регистронезависимое (только если оно единственное).
func (c *Catalog) NormalizeObjectName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if _, ok := c.Objects[name]; ok {
		return name, true
	}
	var found string
	for n := range c.Objects {
		if strings.EqualFold(n, name) {
			if found != "" {
				return "", false
			}
			found = n
		}
	}
	return found, found != ""
}

func (c *Catalog) Object(name string) (*Object, bool) {
	n, ok := c.NormalizeObjectName(name)
	if !ok {
		return nil, false
	}
	return c.Objects[n], true
}

// ChildRelationship ищет связь name, объявленную у любого родителя, с дочерним объектом child
func (c *Catalog) ChildRelationship(name, child string) (ChildRelationship, string, bool) {
	for _, parent := range c.ObjectNames() {
		for _, ch := range c.Objects[parent].Children {
			if strings.EqualFold(ch.Name, name) && strings.EqualFold(ch.Object, child) {
				return ch, parent, true
			}
		}
	}
	return ChildRelationship{}, "", false
}

func (c *Catalog) List(name string) (ListDef, bool) {
	for _, l := range c.Lists {
		if l.Name == name {
			return l, true
		}
	}
	return ListDef{}, false
}

// ListViewsOf — представления объекта в порядке описания
func (c *Catalog) ListViewsOf(object string) []ListViewDef {
	var out []ListViewDef
	for _, lv := range c.ListViews {
		if strings.EqualFold(lv.Object, object) {
			out = append(out, lv)
		}
	}
	return out
}

func (c *Catalog) ListView(object, id string) (ListViewDef, bool) {
	for _, lv := range c.ListViewsOf(object) {
		if lv.ID == id {
			return lv, true
		}
	}
	return ListViewDef{}, false
}

// Field ищет поле по имени без учёта регистра; Id есть у любого объекта
func (o *Object) Field(name string) (Field, bool) {
	if strings.EqualFold(name, "Id") {
		return Field{Name: "Id", Type: "id", Options: map[string]string{"label": "Record ID", "readonly": "true"}}, true
	}
	for _, f := range o.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

func (f Field) Label() string {
	if l := f.Options["label"]; l != "" {
		return l
	}
	return f.Name
}

func (f Field) ReadOnly() bool {
	return f.Type == "id" || strings.EqualFold(f.Options["readonly"], "true")
}

func (f Field) Required() bool {
	return strings.EqualFold(f.Options["required"], "true")
}

// Relationship — ключ, под которым связанная запись вкладывается в строку ("AccountId" -> "Account")
func (f Field) Relationship() string {
	if r := f.Options["relationship"]; r != "" {
		return r
	}
	switch {
	case strings.HasSuffix(f.Name, "__c"):
		return strings.TrimSuffix(f.Name, "__c") + "__r"
	case len(f.Name) > 2 && strings.HasSuffix(f.Name, "Id"):
		return strings.TrimSuffix(f.Name, "Id")
	}
	return f.Name + "Ref"
}

// NameField — поле связанной записи, которое показывается вместо id
func (f Field) NameField() string {
	if n := f.Options["namefield"]; n != "" {
		return n
	}
	return "Name"
}

// DisplayType — семантический тип поля платформы
func (f Field) DisplayType() string {
	switch strings.ToLower(f.Type) {
	case "string":
		return "STRING"
	case "text":
		return "TEXTAREA"
	case "email":
		return "EMAIL"
	case "phone":
		return "PHONE"
	case "url":
		return "URL"
	case "address":
		return "ADDRESS"
	case "combobox":
		return "COMBOBOX"
	case "enum":
		return "PICKLIST"
	case "array":
		if f.ElemType == "enum" {
			return "MULTIPICKLIST"
		}
		return "STRING"
	case "int":
		return "INTEGER"
	case "long":
		return "LONG"
	case "float":
		return "DOUBLE"
	case "money":
		return "CURRENCY"
	case "percent":
		return "PERCENT"
	case "bool":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "datetime":
		return "DATETIME"
	case "ref":
		return "REFERENCE"
	case "id":
		return "ID"
	}
	return strings.ToUpper(f.Type)
}

// RendererType — тип колонки табличного рендерера
func (f Field) RendererType() string {
	switch f.DisplayType() {
	case "EMAIL":
		return "email"
	case "PHONE":
		return "phone"
	case "URL":
		return "url"
	case "CURRENCY":
		return "currency"
	case "PERCENT":
		return "percent"
	case "INTEGER", "LONG", "DOUBLE":
		return "number"
	case "BOOLEAN":
		return "boolean"
	case "DATE":
		return "date-local"
	case "DATETIME":
		return "date"
	}
	return "text"
}

// RelatedRecordFieldName — путь к отображаемому значению связанной записи ("Account.Name")
func (f Field) RelatedRecordFieldName() string {
	if f.Type != "ref" {
		return ""
	}
	return f.Relationship() + "." + f.NameField()
}

package grid

import (
	"pflist/internal/platform"
)

// Result — ответ initPFList, приведённый к виду списка
type Result struct {
	Columns         []Column         `json:"columns"`
	GridColumns     []GridColumn     `json:"dataTableColumns"`
	Rows            []Record         `json:"records"`
	ListViewOptions []ListViewOption `json:"listViewOptions"`
	IconName        string           `json:"iconName"`
}

// Normalize строит колонки, колонки рендерера, строки со ссылкой и варианты представлений.
// Ошибок не возвращает: отсутствующие поля остаются пустыми и дальше считаются blank.
func Normalize(resp *platform.FetchResponse, objectName string, editable EditableFields) Result {
	res := Result{
		Columns:         []Column{},
		GridColumns:     []GridColumn{},
		Rows:            []Record{},
		ListViewOptions: []ListViewOption{},
		IconName:        IconName(objectName),
	}
	if resp == nil {
		return res
	}

	className := ColumnClassName(len(resp.Columns))
	for _, rc := range resp.Columns {
		isEditable := editable.Contains(rc.Name)
		res.GridColumns = append(res.GridColumns, GridColumn{
			Label:     rc.Label,
			FieldName: rc.Name,
			Type:      rc.Type,
			Sortable:  true,
			Editable:  isEditable,
		})

		col := Column{
			Name:                   rc.Name,
			Label:                  rc.Label,
			Type:                   rc.Type,
			DisplayType:            rc.DisplayType,
			RelatedRecordFieldName: rc.RelatedRecordFieldName,
			Editable:               isEditable,
			SortIconName:           IconSortNeutral,
			ClassName:              className,
		}
		if rc.DisplayType == DisplayPicklist {
			col.ClassName += " overflowVisible"
		}
		res.Columns = append(res.Columns, col)
	}

	for _, raw := range resp.Records {
		rec := make(Record, len(raw)+1)
		for k, v := range raw {
			rec[k] = v
		}
		id, _ := stringify(raw[FieldID])
		rec[FieldLink] = RecordLink(objectName, id)
		res.Rows = append(res.Rows, rec)
	}

	for _, lv := range resp.ListViewsOptions {
		res.ListViewOptions = append(res.ListViewOptions, ListViewOption{Label: lv.Name, Value: lv.ID})
	}
	return res
}

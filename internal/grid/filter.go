package grid

import (
	"strings"
)

// Filter возвращает строки, прошедшие глобальный поиск и фильтры колонок.
//
// Глобальный поиск — ИЛИ по колонкам; при пустом тексте каждая колонка считается совпавшей,
// поэтому строка проходит, если у списка есть хотя бы одна колонка.
// Фильтры колонок — И по всем колонкам с непустым filterText.
// Порядок строк сохраняется.
func Filter(rows []Record, columns []Column, globalText string) []Record {
	out := make([]Record, 0, len(rows))
	for _, rec := range rows {
		matchesSearch := false
		matchesColumns := true
		for _, col := range columns {
			m := true
			if globalText != "" {
				m = passesFilter(rec, col, globalText)
			}
			if m {
				matchesSearch = true
			}

			if col.FilterText != "" && !passesFilter(rec, col, col.FilterText) {
				matchesColumns = false
			}
		}
		if matchesSearch && matchesColumns {
			out = append(out, rec)
		}
	}
	return out
}

// passesFilter — политика сопоставления по displayType
func passesFilter(rec Record, col Column, term string) bool {
	switch col.DisplayType {
	case DisplayString, DisplayTextArea, DisplayEmail, DisplayPhone,
		DisplayPicklist, DisplayMultiPicklist, DisplayAddress, DisplayCombobox,
		DisplayID, DisplayURL,
		DisplayDate, DisplayDateTime,
		DisplayDouble, DisplayPercent, DisplayCurrency, DisplayInteger, DisplayLong,
		DisplayBoolean:
		return ContainsString(term, rec[col.Name])

	case DisplayReference:
		v, ok := resolvePath(rec, col.RelatedRecordFieldName)
		if !ok {
			return false
		}
		return ContainsString(term, v)
	}
	// неизвестный тип — не фильтруем
	return true
}

// resolvePath идёт по пути "Account.Name" внутрь записи; останавливается на первом
// отсутствующем сегменте. ok=false, если итог не скаляр (объект, массив или null).
func resolvePath(rec Record, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = map[string]any(rec)
	for _, seg := range strings.Split(path, ".") {
		var m map[string]any
		switch t := cur.(type) {
		case map[string]any:
			m = t
		case Record:
			m = t
		}
		if m == nil {
			break
		}
		v, has := m[seg]
		if !has {
			break
		}
		cur = v
	}
	if cur == nil {
		return nil, false
	}
	if _, scalar := stringify(cur); !scalar {
		return nil, false
	}
	return cur, true
}

// ContainsString: пустой (или из пробелов) искомый текст совпадает всегда,
// пустое значение с непустым текстом — никогда; иначе подстрока без учёта регистра
// после обрезки пробелов.
func ContainsString(term string, value any) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	if isBlank(value) {
		return false
	}
	s, ok := stringify(value)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(s)), strings.ToLower(term))
}

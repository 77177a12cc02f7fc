package grid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record — строка списка: имя поля -> значение, как пришло от платформы (+ link)
type Record map[string]any

// ID возвращает идентификатор записи в строковом виде
func (r Record) ID() string {
	s, _ := stringify(r[FieldID])
	return s
}

// isBlank: nil, отсутствующее значение, пустая строка, пустой массив/объект
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case Record:
		return len(t) == 0
	}
	return false
}

// stringify — строковая форма скалярного значения; ok=false для вложенных объектов и массивов
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case []byte:
		return string(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case map[string]any, Record, []any:
		return "", false
	case fmt.Stringer:
		return t.String(), true
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), true
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// valueKind — ранг типа при сравнении разнотипных значений: числа, затем bool, затем строки
func valueKind(v any) int {
	if _, ok := toFloat(v); ok {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	return 2
}

// compareValues — естественный порядок: сначала по рангу типа (числа < bool < строки),
// внутри ранга числа как числа, false < true, строки лексикографически.
func compareValues(a, b any) int {
	ka, kb := valueKind(a), valueKind(b)
	if ka != kb {
		if ka < kb {
			return -1
		}
		return +1
	}
	switch ka {
	case 0:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return +1
		}
		return 0
	case 1:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return +1
	}
	sa, _ := stringify(a)
	sb, _ := stringify(b)
	return strings.Compare(sa, sb)
}

// coerceCell приводит значение из черновика к типу колонки: рендерер отдаёт числа
// и флаги текстом. Непарсящееся значение остаётся как есть.
func coerceCell(displayType string, v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch displayType {
	case DisplayDouble, DisplayPercent, DisplayCurrency, DisplayInteger, DisplayLong:
		t := strings.TrimSpace(s)
		if t == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	case DisplayBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	}
	return v
}

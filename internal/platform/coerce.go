package platform

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pflist/internal/catalog"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// coerceValue приводит значение из черновика к типу поля. Пустая строка и null
// означают очистку поля. Ссылки проверяются отдельно (нужен доступ к хранилищу).
func coerceValue(f catalog.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" && f.Type != "string" && f.Type != "text" {
		return nil, nil
	}

	switch f.Type {
	case "string", "text", "email", "phone", "url", "address", "combobox", "ref":
		return toStringStrict(v)
	case "int", "long":
		n, err := toIntStrict(v)
		if err != nil {
			return nil, err
		}
		return float64(n), nil
	case "float", "money", "percent":
		return toFloatStrict(v)
	case "bool":
		return toBoolStrict(v)
	case "date":
		s, err := toStringStrict(v)
		if err != nil {
			return nil, err
		}
		if !dateRe.MatchString(s) {
			return nil, errors.New("must match YYYY-MM-DD")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, errors.New("invalid date")
		}
		return s, nil
	case "datetime":
		s, err := toStringStrict(v)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, errors.New("must be RFC3339 datetime")
		}
		return t.UTC().Format(time.RFC3339), nil
	case "enum":
		s, err := toStringStrict(v)
		if err != nil {
			return nil, err
		}
		if !inEnum(f.Enum, s) {
			return nil, fmt.Errorf("value '%s' is not allowed", s)
		}
		return s, nil
	case "array":
		return coerceArray(f, v)
	}
	return v, nil
}

// coerceArray: массив или строка "a;b" / "a,b" (так мультивыбор приходит из грида)
func coerceArray(f catalog.Field, v any) (any, error) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case string:
		sep := ","
		if strings.Contains(t, ";") {
			sep = ";"
		}
		for _, p := range strings.Split(t, sep) {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
	default:
		return nil, errors.New("must be array")
	}
	out := make([]any, 0, len(items))
	for i, it := range items {
		s, err := toStringStrict(it)
		if err != nil {
			return nil, fmt.Errorf("array element %d: %v", i, err)
		}
		if f.ElemType == "enum" && !inEnum(f.Enum, s) {
			return nil, fmt.Errorf("array element %d: value '%s' is not allowed", i, s)
		}
		out = append(out, s)
	}
	return out, nil
}

func inEnum(values []string, s string) bool {
	for _, ev := range values {
		if s == ev {
			return true
		}
	}
	return false
}

func toStringStrict(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.New("must be string")
}

func toIntStrict(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		if t != float64(int64(t)) {
			return 0, errors.New("must be integer")
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, errors.New("must be integer")
		}
		return n, nil
	default:
		return 0, errors.New("must be integer")
	}
}

func toFloatStrict(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errors.New("must be number")
		}
		return f, nil
	default:
		return 0, errors.New("must be number")
	}
}

func toBoolStrict(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y", "on":
			return true, nil
		case "false", "0", "no", "n", "off":
			return false, nil
		}
	}
	return false, errors.New("must be boolean")
}

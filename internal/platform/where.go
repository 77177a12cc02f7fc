package platform

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"pflist/internal/catalog"
)

type filterCond struct {
	field catalog.Field
	op    string // eq, ne, in, like, gt, gte, lt, lte
	vals  []string
}

var knownOps = map[string]bool{
	"eq": true, "ne": true, "in": true, "like": true,
	"gt": true, "gte": true, "lt": true, "lte": true,
}

// parseWhere разбирает условия вида
//
//	StageName__in=Prospecting,Qualification&Amount__gte=1000&Name__like=acme
//
// Суффикс __op отделяется, только если это известный оператор: у custom-полей
// (acme__Region__c) двойное подчёркивание входит в имя.
func parseWhere(obj *catalog.Object, clause string) ([]filterCond, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil, nil
	}
	q, err := url.ParseQuery(clause)
	if err != nil {
		return nil, fmt.Errorf("where %q: %w", clause, err)
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []filterCond
	for _, key := range keys {
		vals := q[key]
		if len(vals) == 0 {
			continue
		}
		name, op := key, "eq"
		if i := strings.LastIndex(key, "__"); i > 0 && knownOps[strings.ToLower(key[i+2:])] {
			name, op = key[:i], strings.ToLower(key[i+2:])
		}
		f, ok := obj.Field(name)
		if !ok {
			return nil, fmt.Errorf("where: %s has no field %q", obj.Name, name)
		}
		var parts []string
		if op == "in" {
			for _, p := range strings.Split(vals[0], ",") {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
		} else {
			parts = []string{vals[0]}
		}
		if len(parts) > 0 {
			out = append(out, filterCond{field: f, op: op, vals: parts})
		}
	}
	return out, nil
}

func matchAll(rec map[string]any, conds []filterCond) bool {
	for _, c := range conds {
		if !compareByType(c.field.Type, rec[c.field.Name], c.op, c.vals) {
			return false
		}
	}
	return true
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func compareByType(ft string, got any, op string, want []string) bool {
	gs := toString(got)
	switch op {
	case "eq":
		return strings.EqualFold(gs, want[0])
	case "ne":
		return !strings.EqualFold(gs, want[0])
	case "in":
		for _, w := range want {
			if strings.EqualFold(gs, w) {
				return true
			}
		}
		return false
	case "like":
		return got != nil && strings.Contains(strings.ToLower(gs), strings.ToLower(want[0]))
	}

	if got == nil {
		return false
	}
	rel, ok := relation(ft, got, want[0])
	if !ok {
		return false
	}
	switch op {
	case "gt":
		return rel > 0
	case "gte":
		return rel >= 0
	case "lt":
		return rel < 0
	case "lte":
		return rel <= 0
	}
	return false
}

// relation сравнивает got с want по типу поля: -1, 0, +1
func relation(ft string, got any, want string) (int, bool) {
	switch ft {
	case "int", "long", "float", "money", "percent":
		gv, ok := asFloat(got)
		if !ok {
			return 0, false
		}
		wv, err := strconv.ParseFloat(strings.TrimSpace(want), 64)
		if err != nil {
			return 0, false
		}
		return cmpFloat(gv, wv), true

	case "date", "datetime":
		layout := "2006-01-02"
		if ft == "datetime" {
			layout = time.RFC3339
		}
		gs, ok := got.(string)
		if !ok {
			return 0, false
		}
		gd, err := time.Parse(layout, gs)
		if err != nil {
			return 0, false
		}
		wd, err := time.Parse(layout, strings.TrimSpace(want))
		if err != nil {
			return 0, false
		}
		return gd.Compare(wd), true
	}
	return strings.Compare(toString(got), want), true
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return +1
	}
	return 0
}

// ==== ORDER BY ====

type sortKey struct {
	field string
	ftype string
	desc  bool
}

// parseOrderBy: "CloseDate DESC, Name" или "-CloseDate,Name"
func parseOrderBy(obj *catalog.Object, s string) ([]sortKey, error) {
	var keys []sortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(part, "-") {
			desc = true
			part = strings.TrimPrefix(part, "-")
		} else if strings.HasPrefix(part, "+") {
			part = strings.TrimPrefix(part, "+")
		}
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) > 1 {
			switch strings.ToUpper(fields[1]) {
			case "DESC":
				desc = true
			case "ASC":
			default:
				return nil, fmt.Errorf("order by %q: unknown direction %q", part, fields[1])
			}
		}
		f, ok := obj.Field(fields[0])
		if !ok {
			return nil, fmt.Errorf("order by: %s has no field %q", obj.Name, fields[0])
		}
		keys = append(keys, sortKey{field: f.Name, ftype: f.Type, desc: desc})
	}
	return keys, nil
}

// cmpByKey — nulls всегда в конце
func cmpByKey(a, b map[string]any, k sortKey) int {
	va, vb := a[k.field], b[k.field]
	na, nb := va == nil || va == "", vb == nil || vb == ""
	if na && nb {
		return 0
	}
	if na != nb {
		if na {
			return +1
		}
		return -1
	}
	rel, ok := relation(k.ftype, va, toString(vb))
	if !ok {
		rel = strings.Compare(toString(va), toString(vb))
	}
	if k.desc {
		rel = -rel
	}
	return rel
}

func sortRecords(records []map[string]any, keys []sortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(records[i], records[j], k); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

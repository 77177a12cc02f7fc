package pg

import (
	"fmt"
	"strings"

	"pflist/internal/catalog"
)

const (
	Schema       = "pflist"
	recordsTable = Schema + ".records"
)

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {}, "records": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// элементарная плюрализация (accounts, contacts, ...)
func plural(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

func safeView(object string) string {
	v := plural(object)
	if isReserved(v) {
		v = "o_" + v
	}
	return v
}

func sqlIdent(s string) string { return `"` + strings.ReplaceAll(strings.ToLower(s), `"`, `""`) + `"` }

func sqlLiteral(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

func mapType(f catalog.Field) (string, error) {
	switch strings.ToLower(f.Type) {
	case "string", "text", "email", "phone", "url", "address", "combobox", "enum", "ref":
		return "text", nil
	case "int", "long":
		return "bigint", nil
	case "float", "percent":
		return "double precision", nil
	case "money":
		return "numeric(18,2)", nil
	case "bool":
		return "boolean", nil
	case "date":
		return "date", nil
	case "datetime":
		return "timestamp with time zone", nil
	case "array":
		return "jsonb", nil
	default:
		return "", fmt.Errorf("unknown type: %s", f.Type)
	}
}

// columnExpr — выражение колонки view поверх jsonb
func columnExpr(f catalog.Field) (string, error) {
	typ, err := mapType(f)
	if err != nil {
		return "", err
	}
	key := sqlLiteral(f.Name)
	switch typ {
	case "jsonb":
		return fmt.Sprintf("data->%s", key), nil
	case "text":
		return fmt.Sprintf("data->>%s", key), nil
	}
	return fmt.Sprintf("nullif(data->>%s, '')::%s", key, typ), nil
}

// GenerateDDL возвращает шаги DDL: общая таблица записей (jsonb) и по view на каждый объект
// каталога с типизированными колонками. Ключи задают порядок применения.
func GenerateDDL(cat *catalog.Catalog) (map[string]string, error) {
	out := make(map[string]string, len(cat.Objects)+1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "create schema if not exists %s;\n", sqlIdent(Schema))
	fmt.Fprintf(&sb, `create table if not exists %s (
  "id" text primary key,
  "object" text not null,
  "seq" bigserial,
  "version" bigint not null default 1,
  "created_at" timestamp with time zone not null default now(),
  "updated_at" timestamp with time zone not null default now(),
  "data" jsonb not null default '{}'::jsonb
);
`, recordsTable)
	fmt.Fprintf(&sb, "create index if not exists records_object_seq_idx on %s(\"object\", \"seq\");\n", recordsTable)
	out["000_records"] = sb.String()

	for _, name := range cat.ObjectNames() {
		o := cat.Objects[name]
		cols := []string{`"id"`, `"version"`, `"updated_at"`}
		seen := map[string]struct{}{"id": {}, "version": {}, "updated_at": {}}
		for _, f := range o.Fields {
			lower := strings.ToLower(f.Name)
			if _, exists := seen[lower]; exists {
				return nil, fmt.Errorf("%s: field %q duplicates a system or another column", name, f.Name)
			}
			seen[lower] = struct{}{}
			expr, err := columnExpr(f)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
			}
			cols = append(cols, fmt.Sprintf("%s as %s", expr, sqlIdent(f.Name)))
		}
		view := sqlIdent(Schema) + "." + sqlIdent(safeView(name))
		// drop + create: набор колонок мог поменяться после reload
		out["100_view_"+strings.ToLower(name)] = fmt.Sprintf(
			"drop view if exists %s;\ncreate view %s as\n  select %s\n  from %s where \"object\" = %s;\n",
			view, view, strings.Join(cols, ",\n    "), recordsTable, sqlLiteral(name))
	}
	return out, nil
}

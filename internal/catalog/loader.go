package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// listsFile — формат *.yaml в каталоге: списки, представления и начальные записи
type listsFile struct {
	Lists     []ListDef                   `yaml:"lists"`
	ListViews []ListViewDef               `yaml:"listViews"`
	Records   map[string][]map[string]any `yaml:"records"`
}

// Load читает каталог: *.dsl (объекты) и *.yaml/*.yml (списки, представления, записи)
func Load(root string) (*Catalog, error) {
	objects, err := LoadObjects(root)
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		Objects: objects,
		Seed:    make(map[string][]map[string]any),
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var lf listsFile
		if err := yaml.Unmarshal(data, &lf); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, l := range lf.Lists {
			// имя списка — из name или из имени файла
			if l.Name == "" {
				l.Name = strings.TrimSuffix(name, filepath.Ext(name))
			}
			if _, dup := c.List(l.Name); dup {
				return fmt.Errorf("duplicate list %q (file: %s)", l.Name, path)
			}
			c.Lists = append(c.Lists, l)
		}
		c.ListViews = append(c.ListViews, lf.ListViews...)
		for obj, recs := range lf.Records {
			for _, r := range recs {
				c.Seed[obj] = append(c.Seed[obj], normalizeYAML(r).(map[string]any))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// normalizeYAML приводит значения к тому виду, в котором они приходят из JSON:
// целые -> float64, даты -> строки.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

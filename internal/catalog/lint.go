package catalog

import (
	"fmt"
	"strings"
)

type Issue struct {
	Object  string `json:"object,omitempty"`
	List    string `json:"list,omitempty"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Lint проверяет ссылки между объектами, списками и представлениями.
// Любая найденная проблема блокирует перезагрузку каталога.
func (c *Catalog) Lint() []Issue {
	var issues []Issue

	for _, name := range c.ObjectNames() {
		o := c.Objects[name]
		seen := map[string]bool{}
		for _, f := range o.Fields {
			key := strings.ToLower(f.Name)
			if seen[key] {
				issues = append(issues, Issue{Object: name, Field: f.Name, Code: "field_duplicate", Message: "field declared twice"})
			}
			seen[key] = true

			if f.Type == "ref" {
				if _, ok := c.Object(f.RefTarget); !ok {
					issues = append(issues, Issue{
						Object: name, Field: f.Name, Code: "ref_target_unknown",
						Message: fmt.Sprintf("ref target %q is not a known object", f.RefTarget),
					})
				}
			}
			if f.Type == "enum" && len(f.Enum) == 0 {
				issues = append(issues, Issue{Object: name, Field: f.Name, Code: "enum_empty", Message: "enum has no values"})
			}
		}
		for _, ch := range o.Children {
			child, ok := c.Object(ch.Object)
			if !ok {
				issues = append(issues, Issue{
					Object: name, Code: "child_object_unknown",
					Message: fmt.Sprintf("child relationship %s: unknown object %q", ch.Name, ch.Object),
				})
				continue
			}
			if _, ok := child.Field(ch.Field); !ok {
				issues = append(issues, Issue{
					Object: name, Field: ch.Field, Code: "child_field_unknown",
					Message: fmt.Sprintf("child relationship %s: %s has no field %q", ch.Name, ch.Object, ch.Field),
				})
			}
		}
	}

	for _, l := range c.Lists {
		o, ok := c.Object(l.SObjectName)
		if !ok {
			issues = append(issues, Issue{
				List: l.Name, Code: "object_unknown",
				Message: fmt.Sprintf("sObjectName %q is not a known object", l.SObjectName),
			})
			continue
		}
		for _, fn := range SplitNames(l.FieldsString) {
			if _, ok := o.Field(fn); !ok {
				issues = append(issues, Issue{List: l.Name, Field: fn, Code: "field_unknown", Message: "field is not declared on " + o.Name})
			}
		}
		if l.ChildRelationship != "" {
			if _, _, ok := c.ChildRelationship(l.ChildRelationship, o.Name); !ok {
				issues = append(issues, Issue{
					List: l.Name, Code: "child_relationship_unknown",
					Message: fmt.Sprintf("no object declares child relationship %q to %s", l.ChildRelationship, o.Name),
				})
			}
		}
		switch strings.ToLower(l.EditableMatch) {
		case "", "exact", "substring":
		default:
			issues = append(issues, Issue{
				List: l.Name, Code: "editable_match_unknown",
				Message: fmt.Sprintf("unknown editableMatch %q (allowed: exact|substring)", l.EditableMatch),
			})
		}
	}

	for _, lv := range c.ListViews {
		if _, ok := c.Object(lv.Object); !ok {
			issues = append(issues, Issue{
				Object: lv.Object, Code: "list_view_object_unknown",
				Message: fmt.Sprintf("list view %s (%s) points to an unknown object", lv.ID, lv.Name),
			})
		}
		if strings.TrimSpace(lv.ID) == "" {
			issues = append(issues, Issue{Object: lv.Object, Code: "list_view_id_empty", Message: "list view " + lv.Name + " has no id"})
		}
	}
	return issues
}

// SplitNames — "Name, Phone,,Email" -> [Name Phone Email]
func SplitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

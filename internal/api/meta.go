package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pflist/internal/grid"
)

// ===== META HANDLERS =====

type metaObjectListItem struct {
	Object string `json:"object"`
	Fields int    `json:"fields"`
	Icon   string `json:"iconName"`
}

// GET /api/meta/objects
func MetaListHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat := s.engine.Catalog()
		out := make([]metaObjectListItem, 0, len(cat.Objects))
		for _, name := range cat.ObjectNames() {
			out = append(out, metaObjectListItem{
				Object: name,
				Fields: len(cat.Objects[name].Fields),
				Icon:   grid.IconName(name),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaField struct {
	Name                   string            `json:"name"`
	Label                  string            `json:"label"`
	Type                   string            `json:"type"`
	DisplayType            string            `json:"displayType"`
	ElemType               string            `json:"elemType,omitempty"`
	Ref                    string            `json:"ref,omitempty"`
	RelationshipName       string            `json:"relationshipName,omitempty"`
	RelatedRecordFieldName string            `json:"relatedRecordFieldName,omitempty"`
	Enum                   []string          `json:"enum,omitempty"`
	Required               bool              `json:"required"`
	ReadOnly               bool              `json:"readOnly"`
	Options                map[string]string `json:"options,omitempty"`
}

type metaChild struct {
	Name   string `json:"name"`
	Object string `json:"object"`
	Field  string `json:"field"`
}

type metaObject struct {
	Object    string      `json:"object"`
	Fields    []metaField `json:"fields"`
	Children  []metaChild `json:"childRelationships"`
	ListViews []gin.H     `json:"listViews"`
}

// GET /api/meta/objects/:object
func MetaObjectHandler(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat := s.engine.Catalog()
		obj, ok := cat.Object(c.Param("object"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Object not found"})
			return
		}

		fields := make([]metaField, 0, len(obj.Fields))
		for _, f := range obj.Fields {
			opts := map[string]string{}
			for k, v := range f.Options {
				opts[k] = v
			}
			mf := metaField{
				Name:                   f.Name,
				Label:                  f.Label(),
				Type:                   f.Type,
				DisplayType:            f.DisplayType(),
				ElemType:               f.ElemType,
				Enum:                   append([]string(nil), f.Enum...),
				Required:               f.Required(),
				ReadOnly:               f.ReadOnly(),
				Options:                opts,
				RelatedRecordFieldName: f.RelatedRecordFieldName(),
			}
			if f.Type == "ref" {
				mf.Ref = f.RefTarget
				mf.RelationshipName = f.Relationship()
			}
			fields = append(fields, mf)
		}

		children := make([]metaChild, 0, len(obj.Children))
		for _, ch := range obj.Children {
			children = append(children, metaChild{Name: ch.Name, Object: ch.Object, Field: ch.Field})
		}

		views := []gin.H{}
		for _, lv := range cat.ListViewsOf(obj.Name) {
			views = append(views, gin.H{"id": lv.ID, "name": lv.Name})
		}

		c.JSON(http.StatusOK, metaObject{Object: obj.Name, Fields: fields, Children: children, ListViews: views})
	}
}

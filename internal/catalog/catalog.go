package catalog

import (
	"errors"
	"fmt"
	"os"

	"maps-api/internal/models"

	"github.com/goccy/go-yaml"
)

var (
	ErrUnknownModel = errors.New("catalog: unknown model")
	ErrUnknownField = errors.New("catalog: unknown field")
)

// Field maps a model field to its storage.
// many2one: Column holds the foreign key.
// one2many: InverseColumn is the foreign key on the related table.
// many2many: RelationTable joins Column1 (this model) to Column2 (the related model).
type Field struct {
	Type          models.FieldType `yaml:"type"`
	Column        string           `yaml:"column"`
	Relation      string           `yaml:"relation"`
	InverseColumn string           `yaml:"inverse_column"`
	RelationTable string           `yaml:"relation_table"`
	Column1       string           `yaml:"column1"`
	Column2       string           `yaml:"column2"`
}

// LocationColumns marks a model as a location model.
type LocationColumns struct {
	Address   string `yaml:"address"`
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
	Date      string `yaml:"date"`
}

type Model struct {
	Name         string           `yaml:"-"`
	Table        string           `yaml:"table"`
	DisplayField string           `yaml:"display_field"`
	Location     *LocationColumns `yaml:"location"`
	Fields       map[string]Field `yaml:"fields"`
}

// Catalog is the field metadata of every model the map views can query.
type Catalog struct {
	Models map[string]*Model `yaml:"models"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	for name, m := range c.Models {
		m.Name = name
		if m.Table == "" {
			return nil, fmt.Errorf("catalog: model %s has no table", name)
		}
		if m.DisplayField == "" {
			m.DisplayField = "name"
		}
		for fname, f := range m.Fields {
			if f.Column == "" && !f.Type.Multi() {
				f.Column = fname
			}
			if f.Type.Relational() && f.Relation == "" {
				return nil, fmt.Errorf("catalog: %s.%s is %s without relation", name, fname, f.Type)
			}
			m.Fields[fname] = f
		}
	}
	for name, m := range c.Models {
		for fname, f := range m.Fields {
			if f.Type.Relational() {
				if _, ok := c.Models[f.Relation]; !ok {
					return nil, fmt.Errorf("catalog: %s.%s relates to unknown model %s", name, fname, f.Relation)
				}
			}
		}
	}
	return &c, nil
}

// Model returns the model called name.
func (c *Catalog) Model(name string) (*Model, error) {
	m, ok := c.Models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}

// Field returns the field called name. "id" is implicit on every model.
func (m *Model) Field(name string) (Field, error) {
	if name == "id" {
		return Field{Type: models.FieldInteger, Column: "id"}, nil
	}
	f, ok := m.Fields[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, m.Name, name)
	}
	return f, nil
}

// FieldDefs describes the named fields for a map query.
func (m *Model) FieldDefs(names ...string) (map[string]models.FieldDef, error) {
	defs := make(map[string]models.FieldDef, len(names))
	for _, name := range names {
		f, err := m.Field(name)
		if err != nil {
			return nil, err
		}
		defs[name] = models.FieldDef{Name: name, Type: f.Type, Relation: f.Relation}
	}
	return defs, nil
}

// Describe fills q.Fields from the catalog for every field the query references.
func (c *Catalog) Describe(q *models.Query) error {
	m, err := c.Model(q.ResModel)
	if err != nil {
		return err
	}
	names := append([]string{}, q.FieldNames...)
	if q.LocationField != "" {
		names = append(names, q.LocationField)
	}
	for _, g := range q.GroupBy {
		names = append(names, groupField(g))
	}
	defs, err := m.FieldDefs(names...)
	if err != nil {
		return err
	}
	q.Fields = defs
	return nil
}

func groupField(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

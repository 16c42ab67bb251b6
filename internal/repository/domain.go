package repository

import (
	"fmt"
	"math"
	"strings"

	"maps-api/internal/catalog"
	"maps-api/internal/models"

	"github.com/jackc/pgx/v5"
)

// whereBuilder turns a domain into a SQL condition with positional arguments.
type whereBuilder struct {
	model *catalog.Model
	alias string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) column(name string) string {
	return w.alias + "." + pgx.Identifier{name}.Sanitize()
}

// build returns the terms of domain joined with AND, or "TRUE" for an empty domain.
func (w *whereBuilder) build(domain []models.Condition) (string, error) {
	if len(domain) == 0 {
		return "TRUE", nil
	}
	terms := make([]string, 0, len(domain))
	for _, c := range domain {
		term, err := w.term(c)
		if err != nil {
			return "", err
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, " AND "), nil
}

func (w *whereBuilder) term(c models.Condition) (string, error) {
	f, err := w.model.Field(c.Field)
	if err != nil {
		return "", err
	}
	if f.Type.Multi() {
		return "", fmt.Errorf("repository: domain on %s field %s is not supported", f.Type, c.Field)
	}
	col := w.column(f.Column)
	textual := f.Type == models.FieldChar || f.Type == models.FieldText || f.Type == models.FieldSelection

	switch op := strings.ToLower(c.Operator); op {
	case "=", "!=":
		if isFalsy(c.Value) && f.Type != models.FieldBoolean {
			if op == "=" {
				if textual {
					return fmt.Sprintf("(%s IS NULL OR %s = '')", col, col), nil
				}
				return col + " IS NULL", nil
			}
			if textual {
				return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", col, col), nil
			}
			return col + " IS NOT NULL", nil
		}
		if op == "!=" {
			return fmt.Sprintf("%s IS DISTINCT FROM %s", col, w.arg(scalar(c.Value))), nil
		}
		return fmt.Sprintf("%s = %s", col, w.arg(scalar(c.Value))), nil
	case "<", ">", "<=", ">=":
		return fmt.Sprintf("%s %s %s", col, op, w.arg(scalar(c.Value))), nil
	case "in", "not in":
		list, err := normalizeList(c.Value)
		if err != nil {
			return "", fmt.Errorf("repository: %s on %s: %w", op, c.Field, err)
		}
		if op == "in" {
			return fmt.Sprintf("%s = ANY(%s)", col, w.arg(list)), nil
		}
		return fmt.Sprintf("NOT (%s = ANY(%s))", col, w.arg(list)), nil
	case "like", "ilike":
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("repository: %s on %s needs a string", op, c.Field)
		}
		return fmt.Sprintf("%s::text %s %s", col, strings.ToUpper(op), w.arg("%"+s+"%")), nil
	default:
		return "", fmt.Errorf("repository: unsupported domain operator %q", c.Operator)
	}
}

// isFalsy matches the host convention of comparing against False for "unset".
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == "False"
	}
	return false
}

// scalar converts integral JSON numbers to int64 so they bind to integer columns.
func scalar(v any) any {
	if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return v
}

// normalizeList types a decoded JSON array so pgx can encode it as a Postgres array.
func normalizeList(v any) (any, error) {
	switch t := v.(type) {
	case []int64:
		return t, nil
	case []string:
		return t, nil
	case []any:
		ints := make([]int64, 0, len(t))
		strs := make([]string, 0, len(t))
		for _, e := range t {
			switch x := scalar(e).(type) {
			case int64:
				ints = append(ints, x)
			case string:
				strs = append(strs, x)
			default:
				return nil, fmt.Errorf("unsupported list element %T", e)
			}
		}
		if len(ints) > 0 && len(strs) > 0 {
			return nil, fmt.Errorf("mixed list element types")
		}
		if len(strs) > 0 {
			return strs, nil
		}
		return ints, nil
	}
	return nil, fmt.Errorf("expected a list, got %T", v)
}

// orderBy validates an order clause such as "name ASC" against the model.
func orderBy(m *catalog.Model, alias, order string) (string, error) {
	parts := strings.Fields(order)
	if len(parts) == 0 {
		return alias + ".id", nil
	}
	f, err := m.Field(parts[0])
	if err != nil {
		return "", err
	}
	if f.Type.Multi() {
		return "", fmt.Errorf("repository: cannot order by %s field %s", f.Type, parts[0])
	}
	dir := "ASC"
	if len(parts) > 1 {
		switch strings.ToUpper(parts[1]) {
		case "ASC":
		case "DESC":
			dir = "DESC"
		default:
			return "", fmt.Errorf("repository: invalid order direction %q", parts[1])
		}
	}
	return fmt.Sprintf("%s.%s %s, %s.id", alias, pgx.Identifier{f.Column}.Sanitize(), dir, alias), nil
}

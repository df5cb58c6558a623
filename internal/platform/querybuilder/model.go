package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

type modelColumn struct {
	name  string
	key   bool
	value any
}

// InsertModel starts an insert whose columns come from the model's db tags.
func InsertModel(table string, model any) (*InsertBuilder, error) {
	cols, err := modelColumns(model)
	if err != nil {
		return nil, err
	}
	names, values := splitColumns(cols)
	return InsertInto(table).Columns(names...).Values(values...), nil
}

// UpsertModel is InsertModel plus an ON CONFLICT clause. Fields tagged `db:"col,key"` form the
// conflict target and every other column is overwritten from the excluded row.
func UpsertModel(table string, model any) (*InsertBuilder, error) {
	cols, err := modelColumns(model)
	if err != nil {
		return nil, err
	}

	var keys, updates []string
	for _, col := range cols {
		if col.key {
			keys = append(keys, col.name)
		} else {
			updates = append(updates, col.name)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("upsert into %s: model has no key columns", table)
	}

	names, values := splitColumns(cols)
	return InsertInto(table).Columns(names...).Values(values...).OnConflictUpdate(keys, updates...), nil
}

func modelColumns(model any) ([]modelColumn, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]modelColumn, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, modelColumn{
			name:  name,
			key:   strings.TrimSpace(opts) == "key",
			value: value.Field(i).Interface(),
		})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("model has no db columns")
	}
	return cols, nil
}

func splitColumns(cols []modelColumn) ([]string, []any) {
	names := make([]string, len(cols))
	values := make([]any, len(cols))
	for i, col := range cols {
		names[i] = col.name
		values[i] = col.value
	}
	return names, values
}

package postgres

import (
	"reflect"
	"slices"
	"sync"
)

// ExtractDBColumns returns the "db" tag names of T in field order.
// Embedded structs are flattened.
//
// Usage:
//
//	columns := ExtractDBColumns[plans.Row]()
//	// Returns: ["id", "subdivision_id", "material_id", "date", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		cols = append(cols, f.column)
	}
	return cols
}

// WithoutColumns returns cols minus the excluded names. Repositories use it
// to drop generated columns (id, timestamps) from INSERT lists.
func WithoutColumns(cols []string, exclude ...string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !slices.Contains(exclude, c) {
			out = append(out, c)
		}
	}
	return out
}

type fieldInfo struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []fieldInfo
	byName map[string]int
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{byName: make(map[string]int)}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(slices.Clone(prefix), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		meta.byName[tag] = len(meta.fields)
		meta.fields = append(meta.fields, fieldInfo{index: index, column: tag})
	}
}

// StructToMap converts a struct to a map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil
	}
	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// StructValues returns the values of v for cols, in order. Unknown columns
// yield nil. The result feeds COPY rows.
func StructValues(v any, cols []string) []any {
	rv := reflect.Indirect(reflect.ValueOf(v))
	out := make([]any, len(cols))
	if rv.Kind() != reflect.Struct {
		return out
	}
	meta := metadataOf(rv.Type())
	for i, c := range cols {
		if idx, ok := meta.byName[c]; ok {
			out[i] = rv.FieldByIndex(meta.fields[idx].index).Interface()
		}
	}
	return out
}

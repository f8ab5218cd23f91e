package postgres

import (
	"reflect"
	"sync"

	"github.com/Masterminds/squirrel"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func builder() squirrel.StatementBuilderType { return Builder() }

// ExtractDBColumns lists the "db" tags of T in field order, descending into
// embedded structs such as entity.BaseDocument. Fields tagged "-" are skipped.
//
//	cols := ExtractDBColumns[product.Product]()
//	// ["id", "version", "code", "name", "unit"]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	cols := make([]string, 0, len(meta.columns))
	for _, c := range meta.columns {
		cols = append(cols, c.name)
	}
	return cols
}

type column struct {
	name  string
	index []int
}

type typeMetadata struct {
	columns []column
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		meta.columns = collectColumns(t, nil)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectColumns(t reflect.Type, prefix []int) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = append(cols, collectColumns(f.Type, index)...)
			continue
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: index})
	}
	return cols
}

// StructToMap converts a struct (or pointer to one) into column → value
// using "db" tags. Reflection metadata is cached per type.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.columns))
	for _, c := range meta.columns {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	return res
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package streamstone

import (
	"reflect"
	"time"

	"github.com/waywedo/Streamstone/table"
)

// PropertyMap is a named-value bag of scalar attributes attached to a
// stream header, an event, or an included entity. Keys matching the
// reserved set are silently dropped in every construction path.
type PropertyMap map[string]any

// reservedPropertyNames are attribute names owned by the store or the
// stream layout. User values under these keys are never persisted.
var reservedPropertyNames = map[string]struct{}{
	"PartitionKey":              {},
	"RowKey":                    {},
	"Timestamp":                 {},
	"Version":                   {},
	table.PartitionKeyAttribute: {},
	table.RowKeyAttribute:       {},
	table.ETagAttribute:         {},
}

var timeType = reflect.TypeOf(time.Time{})

// Properties builds a property map from caller-supplied keys and values,
// dropping reserved names.
func Properties(values map[string]any) PropertyMap {
	m := make(PropertyMap, len(values))
	for k, v := range values {
		if _, reserved := reservedPropertyNames[k]; reserved {
			continue
		}
		m[k] = v
	}
	return m
}

// PropertiesOf builds a property map by reflecting over the exported
// scalar-typed fields of obj. Pointer fields are dereferenced; nil pointers
// and non-scalar fields are skipped. Reserved names are dropped.
func PropertiesOf(obj any) PropertyMap {
	m := make(PropertyMap)
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return m
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return m
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if _, reserved := reservedPropertyNames[field.Name]; reserved {
			continue
		}
		value := v.Field(i)
		for value.Kind() == reflect.Pointer {
			if value.IsNil() {
				value = reflect.Value{}
				break
			}
			value = value.Elem()
		}
		if !value.IsValid() {
			continue
		}
		if scalar, ok := scalarValue(value); ok {
			m[field.Name] = scalar
		}
	}
	return m
}

// scalarValue converts a reflected field into one of the store's supported
// attribute types.
func scalarValue(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return b, true
		}
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time), true
		}
		if v.Type().ConvertibleTo(timeType) {
			return v.Convert(timeType).Interface().(time.Time), true
		}
	}
	return nil, false
}

// Clone returns an independent copy of the map. A nil map clones to nil.
func (m PropertyMap) Clone() PropertyMap {
	if m == nil {
		return nil
	}
	c := make(PropertyMap, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// writeTo emits one attribute per key at the row's top level.
func (m PropertyMap) writeTo(attributes map[string]any) {
	for k, v := range m {
		attributes[k] = v
	}
}

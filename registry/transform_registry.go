/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/waywedo/Streamstone/table"
)

// TransformRegistry is a registry of custom row-to-value transforms keyed
// by Go type. Read operations consult it before falling back to the
// canonical reflective copy.

var (
	transformRegistry = make(map[reflect.Type]any)
	mu                sync.RWMutex
)

// RegisterTransform associates type T with a transform used to materialize
// values of T from stored event rows. Registering a type twice panics to
// prevent accidental overrides.
func RegisterTransform[T any](fn func(row table.Row) (T, error)) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()
	if _, exists := transformRegistry[t]; exists {
		panic(fmt.Sprintf("transform registry: type %v already registered", t))
	}
	transformRegistry[t] = fn
}

// TransformFor retrieves the transform registered for type T, if any.
func TransformFor[T any]() (func(row table.Row) (T, error), bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.RLock()
	defer mu.RUnlock()
	fn, ok := transformRegistry[t]
	if !ok {
		return nil, false
	}
	return fn.(func(row table.Row) (T, error)), true
}

// Package domain contains pure, dependency-free domain models and types
// for the move ranking engine.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"
)

// Key represents a type-safe generic key for accessing values in State.
// The type parameter T ensures compile-time type safety when getting and
// setting values, eliminating the need for runtime type assertions.
type Key[T any] struct{ name string }

// NewKey creates a new Key with the specified name and type.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the string form of the key.
func (k Key[T]) Name() string { return k.name }

// Predefined state keys used throughout a ranking run.
var (
	// KeyMoves stores the moves being ranked, in input order.
	KeyMoves = Key[[]Move]{"moves"}

	// KeyComparisons stores the pairwise comparison matrix for KeyMoves.
	KeyComparisons = Key[Matrix]{"comparisons"}

	// KeyRankings stores the overall ranking, best first.
	KeyRankings = Key[[]RankedMove]{"rankings"}

	// KeySolverReport stores how the overall ranking run terminated.
	KeySolverReport = Key[SolverReport]{"solver_report"}

	// KeyCategoryRankings stores per-category rankings in category order.
	KeyCategoryRankings = Key[[]CategoryRanking]{"category_rankings"}

	// KeySummaries stores per-character summaries sorted by character.
	KeySummaries = Key[[]CharacterSummary]{"character_summaries"}

	// KeyRunID stores the unique identifier of the current run.
	KeyRunID = Key[string]{"run.id"}

	// KeyConfigName stores the name of the configuration driving the run.
	KeyConfigName = Key[string]{"run.config_name"}

	// KeyStartedAt records when the run began.
	KeyStartedAt = Key[time.Time]{"run.started_at"}
)

// deepCopyValue creates a deep copy of a value to ensure true immutability.
// It handles slices, maps, and other reference types that would otherwise
// allow external modification of State data.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}

	// time.Time is immutable and can be returned directly.
	if val, ok := value.(time.Time); ok {
		return val
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return value
		}
		newSlice := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopyValue(v.Index(i).Interface())))
		}
		return newSlice.Interface()

	case reflect.Map:
		if v.IsNil() {
			return value
		}
		newMap := reflect.MakeMapWithSize(v.Type(), v.Len())
		for _, key := range v.MapKeys() {
			copiedKey := deepCopyValue(key.Interface())
			copiedValue := deepCopyValue(v.MapIndex(key).Interface())
			newMap.SetMapIndex(reflect.ValueOf(copiedKey), reflect.ValueOf(copiedValue))
		}
		return newMap.Interface()

	case reflect.Ptr:
		if v.IsNil() {
			return v.Interface()
		}
		newPtr := reflect.New(v.Elem().Type())
		newPtr.Elem().Set(reflect.ValueOf(deepCopyValue(v.Elem().Interface())))
		return newPtr.Interface()

	case reflect.Struct:
		// Unexported fields are left zero; every stored domain type exports
		// its fields.
		newStruct := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopyValue(v.Field(i).Interface())))
			}
		}
		return newStruct.Interface()

	default:
		// Primitive types are returned as-is since they are copied by value.
		return value
	}
}

// State represents an immutable collection of ranking data that flows
// through the pipeline. It uses copy-on-write semantics so that a unit can
// never alter the data another unit has already observed.
type State struct {
	data map[string]any
}

// NewState creates a new empty State.
func NewState() State {
	return State{
		data: make(map[string]any),
	}
}

// Get retrieves a value from the State with compile-time type safety.
// It returns the value and a boolean indicating whether the key exists
// and contains a value of the correct type. The returned value is a deep
// copy to maintain immutability.
//
// Example:
//
//	moves, ok := Get(state, KeyMoves)
//	if !ok {
//	    // handle missing value
//	}
func Get[T any](s State, key Key[T]) (T, bool) {
	var zero T
	value, exists := s.data[key.name]
	if !exists {
		return zero, false
	}

	copied := deepCopyValue(value)
	val, ok := copied.(T)
	return val, ok
}

// Has reports whether key is present in the State.
func Has[T any](s State, key Key[T]) bool {
	_, ok := s.data[key.name]
	return ok
}

// Len returns the length of a slice value without copying it. The boolean
// is false when key is absent or holds a different type.
func Len[T any](s State, key Key[[]T]) (int, bool) {
	v, ok := s.data[key.name].([]T)
	return len(v), ok
}

// With creates a new State with the specified key-value pair added or
// updated, leaving the original unchanged.
//
// Example:
//
//	next := With(state, KeyRunID, "c0ffee")
func With[T any](s State, key Key[T], value T) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	newData[key.name] = deepCopyValue(value)
	return State{data: newData}
}

// WithMultiple creates a new State with multiple key-value pairs added
// or updated in a single clone.
func (s State) WithMultiple(updates map[string]any) State {
	newData := maps.Clone(s.data)
	if newData == nil {
		newData = make(map[string]any)
	}
	for k, v := range updates {
		newData[k] = deepCopyValue(v)
	}
	return State{data: newData}
}

// Keys returns all keys present in the State in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// String returns a string representation of the State for debugging purposes.
func (s State) String() string {
	return fmt.Sprintf("State%v", s.Keys())
}

// RunContext identifies a single ranking run.
type RunContext struct {
	// RunID is a unique identifier for this run, used for log and trace
	// correlation.
	RunID string

	// ConfigName names the configuration that produced the pipeline.
	ConfigName string

	// StartedAt is when the run began.
	StartedAt time.Time
}

// WithRunContext returns a State carrying the run metadata.
func (s State) WithRunContext(rc RunContext) State {
	return s.WithMultiple(map[string]any{
		KeyRunID.name:      rc.RunID,
		KeyConfigName.name: rc.ConfigName,
		KeyStartedAt.name:  rc.StartedAt,
	})
}

// RunContext extracts the run metadata. The boolean is false when the run
// ID is missing.
func (s State) RunContext() (RunContext, bool) {
	runID, ok := Get(s, KeyRunID)
	if !ok {
		return RunContext{}, false
	}
	name, _ := Get(s, KeyConfigName)
	started, _ := Get(s, KeyStartedAt)
	return RunContext{RunID: runID, ConfigName: name, StartedAt: started}, true
}

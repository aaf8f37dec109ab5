// Package params implements the parameter equality used to decide whether two
// state occurrences are "the same".
//
// Router parameters arrive from several sources (URL segments, query strings,
// programmatic calls) and are not normalized: the same id may show up as 1, "1"
// or 1.0. Comparison is therefore loose, mirroring the router's own pivot search.
package params

import (
	"reflect"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/spf13/cast"
)

// Equal reports whether a and b hold loosely equal values for every compared key.
// When keys is nil every key present in a is compared; otherwise only keys are.
// A key missing from either map compares as nil.
func Equal(a, b domain.Params, keys []string) bool {
	if keys == nil {
		for k, v := range a {
			if !Loose(v, b[k]) {
				return false
			}
		}
		return true
	}
	for _, k := range keys {
		if !Loose(a[k], b[k]) {
			return false
		}
	}
	return true
}

// Loose compares two parameter values with coercion.
//
// Two nils are equal and nil never equals a value. Otherwise values are equal when
// they are deeply equal, when both coerce to the same number (1, "1", 1.0, true), or
// when both coerce to the same string. Two strings are compared verbatim.
//
// An empty string is not a number, so "" never equals 0. A bool coerces to "true" or
// "false" as a string, so "true" equals true while "1" equals true numerically.
func Loose(a, b any) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil && bNil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}

	fa, errA := cast.ToFloat64E(a)
	fb, errB := cast.ToFloat64E(b)
	if errA == nil && errB == nil {
		return fa == fb
	}

	sa, errA := cast.ToStringE(a)
	sb, errB := cast.ToStringE(b)
	if errA == nil && errB == nil {
		return sa == sb
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

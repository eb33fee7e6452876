package filter

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Range holds optional gt/gte/lt/lte bounds. A nil bound is unset.
type Range struct {
	gt  any
	gte any
	lt  any
	lte any
}

// Between creates an inclusive range from min to max.
func Between(minimum, maximum any) Range {
	return Range{gte: minimum, lte: maximum}
}

// Bounds creates a range with independently optional bounds.
func Bounds(gt, gte, lt, lte any) Range {
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}
}

// GT returns the lower exclusive bound.
func (r Range) GT() any { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() any { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() any { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() any { return r.lte }

// Validate checks that at least one bound is set, that gt/gte and lt/lte are
// mutually exclusive, and that all set bounds are mutually comparable.
func (r Range) Validate() error {
	if r.gt == nil && r.gte == nil && r.lt == nil && r.lte == nil {
		return errors.New("at least one range boundary is required")
	}
	if r.gt != nil && r.gte != nil {
		return errors.New("cannot specify both gt and gte")
	}
	if r.lt != nil && r.lte != nil {
		return errors.New("cannot specify both lt and lte")
	}

	var first boundClass
	for _, b := range []any{r.gt, r.gte, r.lt, r.lte} {
		if b == nil {
			continue
		}
		c := classify(b)
		if c == classNone {
			return fmt.Errorf("bound %v (%T) is not comparable", b, b)
		}
		if first == classNone {
			first = c
			continue
		}
		if c != first {
			return fmt.Errorf("bounds mix %s and %s values", first, c)
		}
	}
	return nil
}

// Source renders the set bounds.
func (r Range) Source() value.Object {
	out := value.Object{}
	if r.gt != nil {
		out["gt"] = r.gt
	}
	if r.gte != nil {
		out["gte"] = r.gte
	}
	if r.lt != nil {
		out["lt"] = r.lt
	}
	if r.lte != nil {
		out["lte"] = r.lte
	}
	return out
}

type boundClass string

const (
	classNone   boundClass = ""
	classNumber boundClass = "number"
	classString boundClass = "string"
	classTime   boundClass = "time"
)

func classify(v any) boundClass {
	if _, ok := v.(time.Time); ok {
		return classTime
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return classNumber
	case reflect.String:
		return classString
	default:
		return classNone
	}
}

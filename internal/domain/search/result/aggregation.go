package result

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/value"
)

// Aggregation is one parsed aggregation result. Raw keeps the full decoded
// object for shapes not modelled here (stats, percentiles, top_hits).
type Aggregation struct {
	DocCount int64
	Value    *float64
	Buckets  []Bucket
	Sub      map[string]Aggregation
	Raw      value.Object
}

// Bucket is one bucket of a multi-bucket aggregation.
type Bucket struct {
	Key         any
	KeyAsString string
	DocCount    int64
	Sub         map[string]Aggregation
	Raw         value.Object
}

// Bucket finds a bucket by its key, compared in string form.
func (a Aggregation) Bucket(key string) (Bucket, bool) {
	for _, b := range a.Buckets {
		if b.KeyString() == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// KeyString returns key_as_string when present, otherwise the key formatted.
func (b Bucket) KeyString() string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	if s, ok := b.Key.(string); ok {
		return s
	}
	return fmt.Sprint(b.Key)
}

// Object-valued keys with these names are data, not sub-aggregations.
var reserved = map[string]bool{
	"buckets": true, "meta": true, "values": true, "hits": true,
	"std_deviation_bounds": true, "location": true, "bounds": true, "centroid": true,
}

func parseAggregations(dec Decoder, raw map[string]json.RawMessage) (map[string]Aggregation, error) {
	out := make(map[string]Aggregation, len(raw))
	for name, data := range raw {
		var obj value.Object
		if err := dec.Decode(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: aggregation %q: %w", domain.ErrInvalidResponse, name, err)
		}
		agg, err := aggregationFrom(obj)
		if err != nil {
			return nil, fmt.Errorf("aggregation %q: %w", name, err)
		}
		out[name] = agg
	}
	return out, nil
}

func aggregationFrom(obj value.Object) (Aggregation, error) {
	a := Aggregation{Raw: obj}
	a.DocCount, _ = asInt(obj["doc_count"])
	if v, ok := asFloat(obj["value"]); ok {
		a.Value = &v
	}

	switch bs := obj["buckets"].(type) {
	case []any:
		for i, item := range bs {
			m, ok := item.(value.Object)
			if !ok {
				return Aggregation{}, fmt.Errorf("%w: bucket %d is %T", domain.ErrInvalidResponse, i, item)
			}
			b, err := bucketFrom(m)
			if err != nil {
				return Aggregation{}, fmt.Errorf("bucket %d: %w", i, err)
			}
			a.Buckets = append(a.Buckets, b)
		}
	case value.Object:
		keys := make([]string, 0, len(bs))
		for k := range bs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			m, ok := bs[k].(value.Object)
			if !ok {
				return Aggregation{}, fmt.Errorf("%w: bucket %q is %T", domain.ErrInvalidResponse, k, bs[k])
			}
			b, err := bucketFrom(m)
			if err != nil {
				return Aggregation{}, fmt.Errorf("bucket %q: %w", k, err)
			}
			if b.Key == nil {
				b.Key = k
			}
			a.Buckets = append(a.Buckets, b)
		}
	}

	sub, err := subAggregations(obj)
	if err != nil {
		return Aggregation{}, err
	}
	a.Sub = sub
	return a, nil
}

func bucketFrom(obj value.Object) (Bucket, error) {
	b := Bucket{Key: obj["key"], Raw: obj}
	if n, ok := b.Key.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			b.Key = i
		} else if f, err := n.Float64(); err == nil {
			b.Key = f
		}
	}
	b.KeyAsString, _ = obj["key_as_string"].(string)
	b.DocCount, _ = asInt(obj["doc_count"])
	sub, err := subAggregations(obj)
	if err != nil {
		return Bucket{}, err
	}
	b.Sub = sub
	return b, nil
}

func subAggregations(obj value.Object) (map[string]Aggregation, error) {
	var out map[string]Aggregation
	for k, v := range obj {
		m, ok := v.(value.Object)
		if !ok || reserved[k] {
			continue
		}
		agg, err := aggregationFrom(m)
		if err != nil {
			return nil, fmt.Errorf("sub-aggregation %q: %w", k, err)
		}
		if out == nil {
			out = make(map[string]Aggregation)
		}
		out[k] = agg
	}
	return out, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Package result materializes decoded search payloads: the envelope, lazily
// converted hits and the aggregation tree.
package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/olleolleolle/search-flip/internal/domain"
)

// Decoder decodes a payload into a JSON-tagged value.
type Decoder interface {
	Decode(data []byte, v any) error
}

// Total is the hit count. The backend sends either a bare number or
// {"value": n, "relation": "eq"|"gte"}.
type Total struct {
	Value    int64
	Relation string
}

// UnmarshalJSON accepts both total forms.
func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		n, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		t.Value, t.Relation = n, "eq"
		return nil
	}
	var obj struct {
		Value    int64  `json:"value"`
		Relation string `json:"relation"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("total: %w", err)
	}
	t.Value, t.Relation = obj.Value, obj.Relation
	return nil
}

// Hit is one raw hit. Source is converted on demand by Hits.
type Hit struct {
	Index     string              `json:"_index"`
	ID        string              `json:"_id"`
	Routing   string              `json:"_routing,omitempty"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
	Sort      []any               `json:"sort,omitempty"`
}

type wire struct {
	Took     int64  `json:"took"`
	TimedOut bool   `json:"timed_out"`
	ScrollID string `json:"_scroll_id"`
	Hits     *struct {
		Total    *Total   `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []Hit    `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// Envelope is a read-only decoded search response. Aggregations are parsed
// on first access. An Envelope must not be copied.
type Envelope struct {
	took     int64
	timedOut bool
	scrollID string
	total    Total
	maxScore *float64
	hits     []Hit
	raw      []byte

	dec      Decoder
	rawAggs  map[string]json.RawMessage
	aggsOnce sync.Once
	aggs     map[string]Aggregation
	aggsErr  error
}

// Parse decodes a search payload. Missing hits, total, aggregations and
// scroll id sections are tolerated.
func Parse(dec Decoder, data []byte) (*Envelope, error) {
	var w wire
	if err := dec.Decode(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidResponse, err)
	}
	e := &Envelope{
		took:     w.Took,
		timedOut: w.TimedOut,
		scrollID: w.ScrollID,
		raw:      data,
		dec:      dec,
		rawAggs:  w.Aggregations,
	}
	if w.Hits != nil {
		e.maxScore = w.Hits.MaxScore
		e.hits = w.Hits.Hits
		if w.Hits.Total != nil {
			e.total = *w.Hits.Total
		}
	}
	return e, nil
}

// Took returns the server-side duration in milliseconds.
func (e *Envelope) Took() int64 { return e.took }

// TimedOut reports whether the backend hit its own timeout.
func (e *Envelope) TimedOut() bool { return e.timedOut }

// ScrollID returns the cursor, empty when not scrolling.
func (e *Envelope) ScrollID() string { return e.scrollID }

// Total returns the total hit count.
func (e *Envelope) Total() Total { return e.total }

// MaxScore returns the highest score, nil when unscored.
func (e *Envelope) MaxScore() *float64 { return e.maxScore }

// Hits returns the raw hits of this page.
func (e *Envelope) Hits() []Hit { return e.hits }

// Raw returns the payload as received.
func (e *Envelope) Raw() []byte { return e.raw }

// Aggregations returns the parsed aggregation tree, an empty map when the
// response carries none.
func (e *Envelope) Aggregations() (map[string]Aggregation, error) {
	e.aggsOnce.Do(func() {
		e.aggs, e.aggsErr = parseAggregations(e.dec, e.rawAggs)
	})
	return e.aggs, e.aggsErr
}

package bulk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/olleolleolle/search-flip/internal/domain"
)

// ItemStatus is the processing outcome of a single bulk item.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// ItemError is the failure the backend reported for one item.
type ItemError struct {
	Type   string
	Reason string
	Status int
}

func (e *ItemError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("bulk item failed with status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("bulk item failed with status %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Result is the outcome of one bulk item.
type Result struct {
	position int
	action   Action
	index    string
	id       string
	code     int
	status   ItemStatus
	err      error
}

// NewOK creates a successful result.
func NewOK(position int, action Action, index, id string, code int) Result {
	return Result{position: position, action: action, index: index, id: id, code: code, status: StatusOK}
}

// NewError creates a failed result.
func NewError(position int, action Action, index, id string, code int, err error) Result {
	return Result{position: position, action: action, index: index, id: id, code: code, status: StatusError, err: err}
}

// Position returns the item's position in the loader's input sequence.
func (r Result) Position() int { return r.position }

// Action returns the item action.
func (r Result) Action() Action { return r.action }

// Index returns the index the backend applied the item to.
func (r Result) Index() string { return r.index }

// ID returns the document id (assigned by the backend when not given).
func (r Result) ID() string { return r.id }

// Code returns the item's HTTP status.
func (r Result) Code() int { return r.code }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Decoder decodes a payload into a JSON-tagged value.
type Decoder interface {
	Decode(data []byte, v any) error
}

type wireItem struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  json.RawMessage `json:"error"`
}

type wireResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]wireItem `json:"items"`
}

// ParseResponse maps a bulk response onto ops. offset is the position of
// ops[0] in the caller's input. Statuses in ignore count as success.
func ParseResponse(dec Decoder, data []byte, ops []Operation, offset int, ignore map[int]bool) ([]Result, error) {
	var resp wireResponse
	if err := dec.Decode(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: bulk response: %w", domain.ErrInvalidResponse, err)
	}
	if len(resp.Items) != len(ops) {
		return nil, fmt.Errorf("%w: bulk response has %d items for %d operations",
			domain.ErrInvalidResponse, len(resp.Items), len(ops))
	}

	results := make([]Result, len(ops))
	for i, entry := range resp.Items {
		op := ops[i]
		item, ok := entry[string(op.Action)]
		if !ok {
			for _, v := range entry {
				item = v
			}
		}
		id := item.ID
		if id == "" {
			id = op.ID
		}
		pos := offset + i

		itemErr := parseItemError(item)
		if (itemErr != nil || item.Status >= 300) && !ignore[item.Status] {
			if itemErr == nil {
				itemErr = &ItemError{Status: item.Status}
			}
			results[i] = NewError(pos, op.Action, item.Index, id, item.Status, itemErr)
			continue
		}
		results[i] = NewOK(pos, op.Action, item.Index, id, item.Status)
	}
	return results, nil
}

func parseItemError(item wireItem) *ItemError {
	raw := bytes.TrimSpace(item.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var obj struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return &ItemError{Type: obj.Type, Reason: obj.Reason, Status: item.Status}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &ItemError{Reason: s, Status: item.Status}
	}
	return &ItemError{Reason: string(raw), Status: item.Status}
}

package searchtest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// JSON marshals v as a reply.
func JSON(status int, v any) Reply {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("searchtest: marshal reply: %v", err))
	}
	return Reply{Status: status, Body: body}
}

// Raw replies with a verbatim body.
func Raw(status int, body string) Reply {
	return Reply{Status: status, Body: []byte(body)}
}

func errorReply(status int, typ, reason string) Reply {
	return JSON(status, map[string]any{
		"error": map[string]any{
			"root_cause": []any{map[string]any{"type": typ, "reason": reason}},
			"type":       typ,
			"reason":     reason,
		},
		"status": status,
	})
}

// Error replies with a backend-style error payload.
func Error(status int, typ, reason string) Reply { return errorReply(status, typ, reason) }

// ScrollExpired is the reply for an unknown or expired scroll id.
func ScrollExpired() Reply {
	return errorReply(http.StatusNotFound, "search_context_missing_exception", "No search context found")
}

// Search describes a search or scroll page.
type Search struct {
	Index        string
	ScrollID     string
	Total        int
	Sources      []any
	Aggregations map[string]any
	Took         int
}

// Reply renders the page. Hits get ids "1", "2", ... unless the source is
// a map carrying an "id" key. A zero Total means len(Sources).
func (s Search) Reply() Reply {
	index := s.Index
	if index == "" {
		index = "test"
	}
	hits := make([]any, 0, len(s.Sources))
	for i, src := range s.Sources {
		id := fmt.Sprint(i + 1)
		if m, ok := src.(map[string]any); ok {
			if v, ok := m["id"]; ok {
				id = fmt.Sprint(v)
			}
		}
		hits = append(hits, map[string]any{
			"_index":  index,
			"_id":     id,
			"_score":  1.0,
			"_source": src,
		})
	}
	total := s.Total
	if total == 0 {
		total = len(s.Sources)
	}
	body := map[string]any{
		"took":      s.Took,
		"timed_out": false,
		"hits": map[string]any{
			"total":     map[string]any{"value": total, "relation": "eq"},
			"max_score": 1.0,
			"hits":      hits,
		},
	}
	if s.ScrollID != "" {
		body["_scroll_id"] = s.ScrollID
	}
	if s.Aggregations != nil {
		body["aggregations"] = s.Aggregations
	}
	return JSON(http.StatusOK, body)
}

// BulkItem is one item of a bulk reply.
type BulkItem struct {
	Action string
	Index  string
	ID     string
	Status int
	Type   string
	Reason string
}

// Bulk renders a bulk reply.
func Bulk(items ...BulkItem) Reply {
	out := make([]any, 0, len(items))
	errs := false
	for _, it := range items {
		action := it.Action
		if action == "" {
			action = "index"
		}
		index := it.Index
		if index == "" {
			index = "test"
		}
		item := map[string]any{"_index": index, "_id": it.ID, "status": it.Status}
		if it.Type != "" || it.Reason != "" {
			errs = true
			item["error"] = map[string]any{"type": it.Type, "reason": it.Reason}
		}
		out = append(out, map[string]any{action: item})
	}
	return JSON(http.StatusOK, map[string]any{"took": 1, "errors": errs, "items": out})
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gmao-data/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to the envelope: validation errors become
// 400, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrInvalid) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, Fail(err.Error()))
}

// readBodyJSON decodes the request body. An empty body is malformed, not a
// zero-value request: on the snapshot replace path that difference is a full
// wipe, so clearing must be spelled out as {"activity_ids": []}.
func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, out)
}

// queryReader parses typed query parameters. An absent parameter is nil; an
// unparseable one records the first error so the handler can reject the
// request instead of silently dropping the filter.
type queryReader struct {
	r   *http.Request
	err error
}

func (q *queryReader) fail(key, value string) {
	if q.err == nil {
		q.err = fmt.Errorf("invalid query parameter %s: %s", key, value)
	}
}

func (q *queryReader) int64Ptr(key string) *int64 {
	s := q.r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		q.fail(key, s)
		return nil
	}
	return &v
}

func (q *queryReader) intPtr(key string) *int {
	s := q.r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		q.fail(key, s)
		return nil
	}
	return &v
}

func (q *queryReader) boolPtr(key string) *bool {
	s := q.r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		q.fail(key, s)
		return nil
	}
	return &v
}

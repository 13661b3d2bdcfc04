// Package issues fetches the GitHub issues referenced by a document and
// builds an index of their current title, state and labels.
package issues

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Label is a GitHub issue label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue holds the fields of a GitHub issue the document tool renders.
type Issue struct {
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	State    string  `json:"state"`
	BodyHTML string  `json:"body_html,omitempty"`
	Labels   []Label `json:"labels,omitempty"`
}

// Record is the flat wire form of a fetched issue: the issue fields plus
// a message that is non-empty only on error. GitHub error payloads decode
// into the same shape.
type Record struct {
	Issue
	Message string `json:"message"`
}

// Merge decodes a GitHub payload onto r one field at a time. A field whose
// JSON type does not fit is left as it was and its name is returned in
// skipped. Only malformed JSON is an error; a valid payload that is not an
// object changes nothing.
func (r *Record) Merge(body []byte) (skipped []string, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if !json.Valid(body) {
			return nil, err
		}
		return nil, nil
	}

	decoders := []struct {
		name   string
		decode func(json.RawMessage) bool
	}{
		{"number", func(raw json.RawMessage) bool { return mergeField(raw, &r.Number) }},
		{"title", func(raw json.RawMessage) bool { return mergeField(raw, &r.Title) }},
		{"state", func(raw json.RawMessage) bool { return mergeField(raw, &r.State) }},
		{"body_html", func(raw json.RawMessage) bool { return mergeField(raw, &r.BodyHTML) }},
		{"labels", func(raw json.RawMessage) bool { return mergeField(raw, &r.Labels) }},
		{"message", func(raw json.RawMessage) bool { return mergeField(raw, &r.Message) }},
	}
	for _, d := range decoders {
		raw, ok := fields[d.name]
		if !ok {
			continue
		}
		if !d.decode(raw) {
			skipped = append(skipped, d.name)
		}
	}
	return skipped, nil
}

// mergeField decodes raw into *dst only when the whole value fits. JSON
// null leaves *dst unchanged.
func mergeField[T any](raw json.RawMessage, dst *T) bool {
	var v T
	if string(raw) == "null" {
		return true
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// FetchError describes why one issue could not be fetched.
type FetchError struct {
	// Number is the issue number from the document reference.
	Number int
	// Status is the HTTP status, 0 when no response was received.
	Status int
	// Message is the GitHub error message or a local description. May be empty.
	Message string
	// Err is the underlying transport or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("issue #%d (status %d): %s: %v", e.Number, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("issue #%d (status %d): %s", e.Number, e.Status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Notification is the user-facing text published for the error.
func (e *FetchError) Notification() string {
	return fmt.Sprintf("Error fetching issue #%d from GitHub. %s (HTTP Status %d).", e.Number, e.Message, e.Status)
}

// Result is the outcome for one issue: Issue is always populated with at
// least the number; Err is nil on success.
type Result struct {
	Issue Issue
	Err   *FetchError
}

// OK reports whether the issue was fetched successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message returns the error message, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// Record flattens the result into its wire form.
func (r Result) Record() Record {
	return Record{Issue: r.Issue, Message: r.Message()}
}

// Index maps issue numbers to results. It holds exactly one entry per
// requested issue and is not modified after FetchAndStore returns.
type Index map[int]Result

// Numbers returns the indexed issue numbers in ascending order.
func (idx Index) Numbers() []int {
	numbers := make([]int, 0, len(idx))
	for number := range idx {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	return numbers
}

// Failed returns the results that carry an error, ordered by number.
func (idx Index) Failed() []Result {
	var failed []Result
	for _, number := range idx.Numbers() {
		if r := idx[number]; !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Records flattens every result into its wire form.
func (idx Index) Records() map[int]Record {
	records := make(map[int]Record, len(idx))
	for number, r := range idx {
		records[number] = r.Record()
	}
	return records
}

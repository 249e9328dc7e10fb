// Package analysis turns interview transcripts into structured per-topic
// findings using a generative language model.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Mode selects the analysis depth.
type Mode string

const (
	// ModePhase1 produces a first-pass topical read of the transcript.
	ModePhase1 Mode = "phase1"
	// ModePhase2 produces a deeper synthesis building on phase1 topics.
	ModePhase2 Mode = "phase2"
)

// Valid reports whether m is a known analysis mode.
func (m Mode) Valid() bool {
	return m == ModePhase1 || m == ModePhase2
}

// Request describes one analysis call.
type Request struct {
	// TextContent is the transcript to analyze.
	TextContent string
	// Items are the topics to report on. Empty means the default set.
	Items []string
	// Mode selects the analysis depth. Defaults to phase1.
	Mode Mode
}

// Finding is the model's answer for a single requested item.
type Finding string

// Result maps each requested item to its finding, preserving the order the
// items were requested in. It marshals as a JSON object whose keys appear in
// that order.
type Result struct {
	entries []entry
}

type entry struct {
	Item    string
	Finding Finding
}

// NewResult builds an empty result with capacity for n entries.
func NewResult(n int) *Result {
	return &Result{entries: make([]entry, 0, n)}
}

// Add appends a finding for item.
func (r *Result) Add(item string, finding Finding) {
	r.entries = append(r.entries, entry{Item: item, Finding: finding})
}

// Len returns the number of findings.
func (r *Result) Len() int { return len(r.entries) }

// Items returns the requested items in order.
func (r *Result) Items() []string {
	items := make([]string, len(r.entries))
	for i, e := range r.entries {
		items[i] = e.Item
	}
	return items
}

// Get returns the finding for item and whether it exists.
func (r *Result) Get(item string) (Finding, bool) {
	for _, e := range r.entries {
		if e.Item == item {
			return e.Finding, true
		}
	}
	return "", false
}

// MarshalJSON emits the findings as an object with keys in insertion order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Item)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(string(e.Finding))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving key order.
func (r *Result) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("analysis: result must be a JSON object")
	}

	r.entries = r.entries[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("analysis: non-string key in result object")
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("analysis: finding for %q is not a string: %w", key, err)
		}
		r.entries = append(r.entries, entry{Item: key, Finding: Finding(val)})
	}
	_, err = dec.Token() // closing brace
	return err
}

// Package stats folds per-prompt outcomes into global and per-category counters.
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outcome is the bucket a single prompt is counted under.
type Outcome int

const (
	// Succeeded means the model answered.
	Succeeded Outcome = iota
	// Refused means the model declined to answer.
	Refused
	// Errored means the invocation itself failed.
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "success"
	case Refused:
		return "refused"
	case Errored:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// OutcomeOf maps an invocation result and its classification to a bucket. The
// classification is ignored when the invocation failed.
func OutcomeOf(invocationSucceeded, refused bool) Outcome {
	switch {
	case !invocationSucceeded:
		return Errored
	case refused:
		return Refused
	default:
		return Succeeded
	}
}

// Counts holds the counters of one bucket. Total == Success + Refused + Error.
type Counts struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Refused int `json:"refused"`
	Error   int `json:"error"`
}

func (c *Counts) add(o Outcome) {
	c.Total++
	switch o {
	case Succeeded:
		c.Success++
	case Refused:
		c.Refused++
	case Errored:
		c.Error++
	}
}

// Consistent reports whether Total equals the sum of the outcome counters.
func (c Counts) Consistent() bool {
	return c.Total == c.Success+c.Refused+c.Error
}

// RunStats is the global tally plus one tally per category, in first-seen order.
// The zero value is ready to use.
type RunStats struct {
	Counts
	order      []string
	byCategory map[string]*Counts
}

// Add counts one prompt of category under outcome.
func (s *RunStats) Add(category string, o Outcome) {
	if s.byCategory == nil {
		s.byCategory = make(map[string]*Counts)
	}
	bucket, ok := s.byCategory[category]
	if !ok {
		bucket = &Counts{}
		s.byCategory[category] = bucket
		s.order = append(s.order, category)
	}
	bucket.add(o)
	s.Counts.add(o)
}

// Categories returns category names in first-seen order.
func (s *RunStats) Categories() []string {
	return append([]string(nil), s.order...)
}

// Category returns the counters for name.
func (s *RunStats) Category(name string) (Counts, bool) {
	c, ok := s.byCategory[name]
	if !ok {
		return Counts{}, false
	}
	return *c, true
}

// Validate checks that every bucket is consistent and that the global counters equal
// the sum of the category counters.
func (s *RunStats) Validate() error {
	if !s.Counts.Consistent() {
		return fmt.Errorf("global counters inconsistent: %+v", s.Counts)
	}
	var sum Counts
	for _, name := range s.order {
		c := s.byCategory[name]
		if !c.Consistent() {
			return fmt.Errorf("category %q counters inconsistent: %+v", name, *c)
		}
		sum.Total += c.Total
		sum.Success += c.Success
		sum.Refused += c.Refused
		sum.Error += c.Error
	}
	if len(s.order) > 0 && sum != s.Counts {
		return fmt.Errorf("global counters %+v differ from category sum %+v", s.Counts, sum)
	}
	return nil
}

// MarshalJSON writes by_category in first-seen order.
func (s RunStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"total":%d,"success":%d,"refused":%d,"error":%d,"by_category":{`,
		s.Total, s.Success, s.Refused, s.Error)
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.byCategory[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads stats back, keeping by_category in file order.
func (s *RunStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		Counts
		ByCategory json.RawMessage `json:"by_category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = RunStats{Counts: raw.Counts}
	if len(raw.ByCategory) == 0 || string(raw.ByCategory) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw.ByCategory))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("by_category: expected object, got %v", tok)
	}
	s.byCategory = make(map[string]*Counts)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("by_category: expected key, got %v", tok)
		}
		var c Counts
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("by_category %q: %w", name, err)
		}
		if _, dup := s.byCategory[name]; !dup {
			s.order = append(s.order, name)
		}
		s.byCategory[name] = &c
	}
	_, err = dec.Token()
	return err
}

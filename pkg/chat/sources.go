package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SourceRef is a cited web source. On the wire it is either a bare URL
// string or an object with url, title and snippet.
type SourceRef struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

func (s *SourceRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var u string
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*s = SourceRef{URL: u}
		return nil
	}

	type plain SourceRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("source must be a url string or object: %w", err)
	}
	*s = SourceRef(p)
	return nil
}

// Label is the title when present, otherwise the URL
func (s SourceRef) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return s.URL
}

// SourceSet collects sources keyed by URL, keeping first-seen order.
// Later entries with an already-seen URL are dropped even if their title or
// snippet differ.
type SourceSet struct {
	seen  map[string]struct{}
	items []SourceRef
}

// Add merges refs into the set and returns how many were new
func (s *SourceSet) Add(refs ...SourceRef) int {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	added := 0
	for _, r := range refs {
		if r.URL == "" {
			continue
		}
		if _, dup := s.seen[r.URL]; dup {
			continue
		}
		s.seen[r.URL] = struct{}{}
		s.items = append(s.items, r)
		added++
	}
	return added
}

// Items returns a copy of the collected sources
func (s *SourceSet) Items() []SourceRef {
	out := make([]SourceRef, len(s.items))
	copy(out, s.items)
	return out
}

func (s *SourceSet) Len() int { return len(s.items) }

// DedupSources returns refs with URL duplicates removed, first wins
func DedupSources(refs []SourceRef) []SourceRef {
	var set SourceSet
	set.Add(refs...)
	return set.Items()
}

// SourceList decodes a list of sources that may be nested one level deep
// (the backend stores one url list per search) into a flat list.
type SourceList []SourceRef

func (l *SourceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sources must be a list: %w", err)
	}

	out := make(SourceList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '[' {
			var nested SourceList
			if err := json.Unmarshal(item, &nested); err != nil {
				return err
			}
			out = append(out, nested...)
			continue
		}
		var ref SourceRef
		if err := json.Unmarshal(item, &ref); err != nil {
			return err
		}
		out = append(out, ref)
	}
	*l = out
	return nil
}

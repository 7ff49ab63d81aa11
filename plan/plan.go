// Package plan derives the flattened output page sequence from the
// assembly model's entry list. The plan is the single source of truth for
// "what is output page N"; it is recomputed on every model change and
// never persisted or patched incrementally.
package plan

import "github.com/wudi/pdfjoin/assembly"

// Slot is one position in the flattened output page sequence: a source
// entry and a 0-based page index within it.
type Slot struct {
	Entry *assembly.Entry
	Page  int
}

// Plan is the ordered output page sequence. Slot i becomes output page
// i+1 of the merged document.
type Plan []Slot

// Build walks entries in list order, skips excluded ones, and emits one
// slot per source page. An empty entry list yields an empty plan; whether
// that is an error is the caller's concern.
func Build(entries []*assembly.Entry) Plan {
	var p Plan
	for _, e := range entries {
		if !e.Included {
			continue
		}
		for page := 0; page < e.PageCount; page++ {
			p = append(p, Slot{Entry: e, Page: page})
		}
	}
	return p
}

// Len returns the number of output pages.
func (p Plan) Len() int { return len(p) }

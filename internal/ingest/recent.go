package ingest

import "sync"

const maxRecentFiles = 20

// RecentFiles is a small MRU list of sink locations, deduplicated by exact
// string match. Safe for concurrent use.
type RecentFiles struct {
	mu    sync.Mutex
	max   int
	items []string
}

func NewRecentFiles(max int) *RecentFiles {
	if max <= 0 {
		max = maxRecentFiles
	}
	return &RecentFiles{max: max}
}

// Touch moves location to the front, evicting the oldest entry when full.
func (r *RecentFiles) Touch(location string) {
	if location == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it == location {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	r.items = append([]string{location}, r.items...)
	if len(r.items) > r.max {
		r.items = r.items[:r.max]
	}
}

// List returns a copy, most recent first.
func (r *RecentFiles) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

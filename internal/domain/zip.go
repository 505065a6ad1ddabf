package domain

import "github.com/paulmach/orb"

// ZipEntry is a single row of the zip-code directory.
type ZipEntry struct {
	Zip    string  `json:"zip"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	City   string  `json:"city"`
	State  string  `json:"state"`
	County string  `json:"county,omitempty"`

	// Located is false when the source row had blank coordinates. Such
	// entries are skipped by geometry matching but stay eligible for the
	// county/state text fallback.
	Located bool `json:"located"`
}

// Point returns the entry's coordinates in orb (lng, lat) order.
func (z ZipEntry) Point() (orb.Point, bool) {
	if !z.Located {
		return orb.Point{}, false
	}
	return orb.Point{z.Lng, z.Lat}, true
}

// ZipDirectory is an immutable, ordered table of zip entries. It is built
// once at startup and shared read-only afterward.
type ZipDirectory struct {
	entries []ZipEntry
	index   map[string]int
}

// NewZipDirectory builds a directory from entries. When the same zip appears
// more than once, the first row wins and later duplicates are dropped.
func NewZipDirectory(entries []ZipEntry) *ZipDirectory {
	d := &ZipDirectory{
		entries: make([]ZipEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := d.index[e.Zip]; dup {
			continue
		}
		d.index[e.Zip] = len(d.entries)
		d.entries = append(d.entries, e)
	}
	return d
}

// Entries returns the directory rows in load order. Callers must not modify
// the returned slice.
func (d *ZipDirectory) Entries() []ZipEntry {
	if d == nil {
		return nil
	}
	return d.entries
}

// Len returns the number of entries.
func (d *ZipDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Lookup finds an entry by its five-digit zip.
func (d *ZipDirectory) Lookup(zip string) (ZipEntry, bool) {
	if d == nil {
		return ZipEntry{}, false
	}
	i, ok := d.index[zip]
	if !ok {
		return ZipEntry{}, false
	}
	return d.entries[i], true
}

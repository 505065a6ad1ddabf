// Package zipfile loads the zip-code reference table into a domain.ZipDirectory.
package zipfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/pkg/errors"
)

// Column aliases accepted in the header row, matched case-insensitively.
var (
	zipColumns    = []string{"STD_ZIP5", "ZIP", "ZIPCODE", "ZIP_CODE"}
	latColumns    = []string{"LATITUDE", "LAT"}
	lngColumns    = []string{"LONGITUDE", "LNG", "LON"}
	cityColumns   = []string{"USPS_ZIP_PREF_CITY", "CITY"}
	stateColumns  = []string{"USPS_ZIP_PREF_STATE", "STATE"}
	countyColumns = []string{"USPS_ZIP_COUNTY_NAME", "COUNTY"}
)

// RowError describes a row excluded from the directory.
type RowError struct {
	Line   int    `json:"line"`
	Zip    string `json:"zip,omitempty"`
	Reason string `json:"reason"`
}

// Report summarizes a load.
type Report struct {
	Rows          int        `json:"rows"`
	Loaded        int        `json:"loaded"`
	Unlocated     int        `json:"unlocated"`
	MissingCounty int        `json:"missing_county"`
	Duplicates    int        `json:"duplicates"`
	Excluded      []RowError `json:"excluded,omitempty"`
}

// Load reads the reference file at path and builds the directory.
func Load(path string) (*domain.ZipDirectory, Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Report{}, errors.WithStack(err)
	}
	defer file.Close()

	entries, report, err := Read(file)
	if err != nil {
		return nil, report, errors.Wrapf(err, "load %s", path)
	}
	dir := domain.NewZipDirectory(entries)
	report.Duplicates = len(entries) - dir.Len()
	report.Loaded = dir.Len()
	return dir, report, nil
}

// Read parses a delimited zip table. The delimiter (comma, tab, or pipe) is
// detected from the header row. Rows with unparsable or out-of-range
// coordinates are excluded; rows with both coordinates blank are kept as
// unlocated entries.
func Read(r io.Reader) ([]domain.ZipEntry, Report, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(br.Size())
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, Report{}, errors.WithStack(err)
	}

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(header)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	cols, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, Report{}, errors.New("empty zip file")
	}
	if err != nil {
		return nil, Report{}, errors.WithStack(err)
	}

	idx, err := mapColumns(cols)
	if err != nil {
		return nil, Report{}, err
	}

	var (
		entries []domain.ZipEntry
		report  Report
	)
	lineNum := 1
	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		lineNum++
		if readErr != nil {
			return nil, report, errors.Wrapf(readErr, "line %d", lineNum)
		}
		report.Rows++

		entry, reason := idx.parse(record)
		if reason != "" {
			report.Excluded = append(report.Excluded, RowError{Line: lineNum, Zip: entry.Zip, Reason: reason})
			continue
		}
		if !entry.Located {
			report.Unlocated++
		}
		if entry.County == "" {
			report.MissingCounty++
		}
		entries = append(entries, entry)
	}

	report.Loaded = len(entries)
	return entries, report, nil
}

// detectDelimiter picks whichever of comma, tab, or pipe occurs most often
// in the first line. Ties and headerless input default to comma.
func detectDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ',', bytes.Count(head, []byte{','})
	for _, d := range []rune{'\t', '|'} {
		if n := bytes.Count(head, []byte{byte(d)}); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

type columnIndex struct {
	zip, lat, lng, city, state, county int
}

func mapColumns(header []string) (columnIndex, error) {
	find := func(names []string) int {
		for i, h := range header {
			h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			for _, n := range names {
				if strings.EqualFold(h, n) {
					return i
				}
			}
		}
		return -1
	}

	idx := columnIndex{
		zip:    find(zipColumns),
		lat:    find(latColumns),
		lng:    find(lngColumns),
		city:   find(cityColumns),
		state:  find(stateColumns),
		county: find(countyColumns),
	}
	switch {
	case idx.zip < 0:
		return idx, errors.Errorf("missing zip column (want one of %s)", strings.Join(zipColumns, ", "))
	case idx.lat < 0 || idx.lng < 0:
		return idx, errors.New("missing LATITUDE/LONGITUDE columns")
	}
	return idx, nil
}

// parse converts one record. A non-empty reason means the row is excluded.
func (c columnIndex) parse(record []string) (domain.ZipEntry, string) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	zip, ok := normalizeZip(field(c.zip))
	entry := domain.ZipEntry{
		Zip:    zip,
		City:   field(c.city),
		State:  strings.ToUpper(field(c.state)),
		County: field(c.county),
	}
	if !ok {
		return entry, "invalid zip"
	}

	latRaw, lngRaw := field(c.lat), field(c.lng)
	if latRaw == "" && lngRaw == "" {
		return entry, ""
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return entry, "unparsable latitude"
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return entry, "unparsable longitude"
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return entry, "coordinates out of range"
	}

	entry.Lat, entry.Lng, entry.Located = lat, lng, true
	return entry, ""
}

// normalizeZip left-pads numeric zips stored without leading zeros and
// drops a ZIP+4 suffix.
func normalizeZip(s string) (string, bool) {
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	if s == "" || len(s) > 5 {
		return s, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s, false
		}
	}
	return strings.Repeat("0", 5-len(s)) + s, true
}

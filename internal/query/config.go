// Package query renders copy-paste SQL templates that pull CRM records for a
// list of target zip codes.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecordType selects which SQL variant Generate emits.
type RecordType string

const (
	RecordSite     RecordType = "Site"
	RecordCustomer RecordType = "Customer"
	RecordContact  RecordType = "Contact"
	RecordCount    RecordType = "Count"
)

var recordTypes = []RecordType{RecordSite, RecordCustomer, RecordContact, RecordCount}

// ParseRecordType maps a name to a RecordType, case-insensitively.
func ParseRecordType(s string) (RecordType, error) {
	s = strings.TrimSpace(s)
	for _, rt := range recordTypes {
		if strings.EqualFold(string(rt), s) {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown record type %q", s)
}

// Config is the user's query configuration. Generate only reads it.
type Config struct {
	RecordType RecordType        `json:"record_type"`
	Fields     map[FieldKey]bool `json:"fields,omitempty"`
	Filters    Filters           `json:"filters"`
	SortBy     FieldKey          `json:"sort_by,omitempty"`
	NAICSCodes []string          `json:"naics_codes,omitempty"`
}

// Filters narrows the exported records. Empty optional values omit the
// corresponding clause.
type Filters struct {
	ActiveStatus          bool          `json:"active_status"`
	LastActivityMonths    OptionalInt   `json:"last_activity_months"`
	LastOrderMonths       OptionalInt   `json:"last_order_months"`
	MinTotalSales         OptionalFloat `json:"min_total_sales"`
	ContactUniqueEmails   bool          `json:"contact_unique_emails"`
	ContactActivityMonths int           `json:"contact_activity_months"`
}

// OptionalInt is an integer that may be left empty. It decodes from JSON
// null, "", a number, or a numeric string.
type OptionalInt struct {
	Value int
	Valid bool
}

// Int returns a set OptionalInt.
func Int(v int) OptionalInt { return OptionalInt{Value: v, Valid: true} }

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	raw, empty, err := optionalText(data)
	if err != nil || empty {
		*o = OptionalInt{}
		return err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("invalid integer %q", raw)
		}
		v = int(f)
	}
	*o = OptionalInt{Value: v, Valid: true}
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

// OptionalFloat is a number that may be left empty. It decodes like
// OptionalInt.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float returns a set OptionalFloat.
func Float(v float64) OptionalFloat { return OptionalFloat{Value: v, Valid: true} }

func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	raw, empty, err := optionalText(data)
	if err != nil || empty {
		*o = OptionalFloat{}
		return err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", raw)
	}
	*o = OptionalFloat{Value: v, Valid: true}
	return nil
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(formatNumber(o.Value)), nil
}

// optionalText unwraps a JSON number or string into its trimmed text.
func optionalText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", true, nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		return s, s == "", nil
	}
	return string(data), false, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

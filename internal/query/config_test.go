package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordType(t *testing.T) {
	for in, want := range map[string]RecordType{
		"Site":      RecordSite,
		"customer":  RecordCustomer,
		" CONTACT ": RecordContact,
		"count":     RecordCount,
	} {
		got, err := ParseRecordType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseRecordType("Lead")
	assert.Error(t, err)
}

func TestOptionalInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    OptionalInt
		wantErr bool
	}{
		{`null`, OptionalInt{}, false},
		{`""`, OptionalInt{}, false},
		{`"  "`, OptionalInt{}, false},
		{`6`, Int(6), false},
		{`"12"`, Int(12), false},
		{`3.0`, Int(3), false},
		{`3.5`, OptionalInt{}, true},
		{`"abc"`, OptionalInt{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got OptionalInt
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionalFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    OptionalFloat
		wantErr bool
	}{
		{`null`, OptionalFloat{}, false},
		{`""`, OptionalFloat{}, false},
		{`1000`, Float(1000), false},
		{`"2500.75"`, Float(2500.75), false},
		{`"lots"`, OptionalFloat{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got OptionalFloat
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_DecodesUIPayload(t *testing.T) {
	payload := `{
		"record_type": "Contact",
		"fields": {"phone": true, "org_naics": false},
		"filters": {
			"active_status": true,
			"last_activity_months": "",
			"last_order_months": "6",
			"min_total_sales": 500,
			"contact_unique_emails": true,
			"contact_activity_months": 12
		},
		"sort_by": "contact_last_activity",
		"naics_codes": ["23", "62"]
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(payload), &cfg))

	assert.Equal(t, RecordContact, cfg.RecordType)
	assert.True(t, cfg.Fields[FieldContactPhone])
	assert.False(t, cfg.Filters.LastActivityMonths.Valid)
	assert.Equal(t, Int(6), cfg.Filters.LastOrderMonths)
	assert.Equal(t, Float(500), cfg.Filters.MinTotalSales)
	assert.Equal(t, 12, cfg.Filters.ContactActivityMonths)
	assert.Equal(t, FieldContactActivity, cfg.SortBy)
	assert.Equal(t, []string{"23", "62"}, cfg.NAICSCodes)

	out, err := json.Marshal(cfg.Filters)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"last_activity_months":null`)
	assert.Contains(t, string(out), `"min_total_sales":500`)
}

func TestFields_CatalogCopy(t *testing.T) {
	fields := Fields()
	require.NotEmpty(t, fields)
	fields[0].Applies[0] = RecordCount
	assert.NotEqual(t, RecordCount, Fields()[0].Applies[0])
}

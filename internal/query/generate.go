package query

import (
	"fmt"
	"slices"
	"strings"
)

const (
	noZipsSentinel      = "-- No zipcodes provided"
	unsupportedSentinel = "-- Unsupported record type: "
)

// Generate renders the SQL template for cfg scoped to zips. naics holds the
// selected industry-code prefixes. countOnly forces the count summary
// regardless of cfg.RecordType.
//
// Generate never fails: an empty zip list or an unknown record type yields a
// SQL comment explaining why nothing was generated. Every literal has its
// single quotes doubled.
func Generate(cfg Config, zips, naics []string, countOnly bool) string {
	zipList := literals(zips)
	if len(zipList) == 0 {
		return noZipsSentinel
	}

	rt := cfg.RecordType
	if rt == "" {
		rt = RecordSite
	} else if parsed, err := ParseRecordType(string(rt)); err == nil {
		rt = parsed
	}
	if countOnly {
		rt = RecordCount
	}

	g := generator{cfg: cfg, rt: rt, zips: zipList, naics: naicsPrefixes(naics)}
	switch rt {
	case RecordCount:
		return g.count()
	case RecordSite, RecordCustomer:
		return g.export()
	case RecordContact:
		if cfg.Filters.ContactUniqueEmails {
			return g.uniqueContacts()
		}
		return g.export()
	default:
		return unsupportedSentinel + string(cfg.RecordType)
	}
}

type generator struct {
	cfg   Config
	rt    RecordType
	zips  []string
	naics []string
}

var headers = map[RecordType]string{
	RecordCount:    "/* Count Summary */",
	RecordSite:     "/* Site Export */",
	RecordCustomer: "/* Customer Export */",
	RecordContact:  "/* Contact Export */",
}

func (g generator) count() string {
	var b strings.Builder
	b.WriteString(headers[RecordCount] + "\n")
	b.WriteString("SELECT\n")
	b.WriteString("  COUNT(DISTINCT s.Id) AS site_count,\n")
	b.WriteString("  COUNT(DISTINCT c.Id) AS customer_count,\n")
	b.WriteString("  COUNT(DISTINCT ct.Id) AS contact_count\n")
	b.WriteString("FROM Site__c s\n")
	b.WriteString("LEFT JOIN Account c ON s.Related_Account__c = c.Id\n")
	b.WriteString("LEFT JOIN Account o ON c.ParentId = o.Id\n")
	b.WriteString("LEFT JOIN Contact ct ON ct.AccountId = c.Id\n")
	g.writeWhere(&b, nil)
	b.WriteString(";")
	return b.String()
}

func (g generator) export() string {
	cols := g.columns()

	var b strings.Builder
	b.WriteString(headers[g.rt] + "\n")
	b.WriteString("SELECT DISTINCT\n")
	writeColumns(&b, cols)
	g.writeFrom(&b)
	g.writeWhere(&b, nil)
	b.WriteString(g.orderBy())
	b.WriteString(";")
	return b.String()
}

// uniqueContacts keeps the most recently active contact per email address.
// Contacts without an email are excluded.
func (g generator) uniqueContacts() string {
	cols := g.columns()
	aliases := make([]column, len(cols))
	for i, c := range cols {
		aliases[i] = column{expr: c.alias}
	}

	var b strings.Builder
	b.WriteString(headers[RecordContact] + "\n")
	b.WriteString("WITH ranked_contacts AS (\n")
	b.WriteString("SELECT\n")
	writeColumns(&b, append(slices.Clone(cols), column{
		expr:  "ROW_NUMBER() OVER (PARTITION BY ct.Email ORDER BY ct.LastActivityDate DESC)",
		alias: "rn",
	}))
	g.writeFrom(&b)
	g.writeWhere(&b, []string{"ct.Email IS NOT NULL"})
	b.WriteString(")\n")
	b.WriteString("SELECT\n")
	writeColumns(&b, aliases)
	b.WriteString("FROM ranked_contacts\n")
	b.WriteString("WHERE rn = 1\n")
	b.WriteString(g.orderBy())
	b.WriteString(";")
	return b.String()
}

func (g generator) writeFrom(b *strings.Builder) {
	b.WriteString("FROM Site__c s\n")
	switch g.rt {
	case RecordSite:
		b.WriteString("LEFT JOIN Account c ON s.Related_Account__c = c.Id\n")
	default:
		b.WriteString("INNER JOIN Account c ON s.Related_Account__c = c.Id\n")
	}
	b.WriteString("LEFT JOIN Account o ON c.ParentId = o.Id\n")
	if g.rt == RecordContact {
		b.WriteString("INNER JOIN Contact ct ON ct.AccountId = c.Id\n")
	}
}

// writeWhere emits the zip clause followed by one AND line per active filter.
func (g generator) writeWhere(b *strings.Builder, extra []string) {
	b.WriteString("WHERE s.Zip__c IN (\n  ")
	b.WriteString(strings.Join(g.zips, ",\n  "))
	b.WriteString("\n  )\n")

	for _, cond := range g.conditions() {
		b.WriteString("  AND " + cond + "\n")
	}
	for _, cond := range extra {
		b.WriteString("  AND " + cond + "\n")
	}
}

func (g generator) conditions() []string {
	f := g.cfg.Filters
	var conds []string

	if len(g.naics) > 0 {
		likes := make([]string, len(g.naics))
		for i, code := range g.naics {
			likes[i] = "o.NAICS_Code__c LIKE '" + code + "%'"
		}
		conds = append(conds, "("+strings.Join(likes, " OR ")+")")
	}
	if f.ActiveStatus {
		conds = append(conds, "c.Status__c = 'Active'")
	}
	if f.LastActivityMonths.Valid && f.LastActivityMonths.Value > 0 {
		conds = append(conds, "c.Last_Activity_Date__c >= "+monthsAgo(f.LastActivityMonths.Value))
	}
	if f.LastOrderMonths.Valid && f.LastOrderMonths.Value > 0 {
		conds = append(conds, "c.Last_Order_Date__c >= "+monthsAgo(f.LastOrderMonths.Value))
	}
	if f.MinTotalSales.Valid && f.MinTotalSales.Value > 0 {
		conds = append(conds, "c.Total_Sales__c >= "+formatNumber(f.MinTotalSales.Value))
	}
	if g.rt == RecordContact && f.ContactActivityMonths > 0 {
		conds = append(conds, "ct.LastActivityDate >= "+monthsAgo(f.ContactActivityMonths))
	}
	return conds
}

// columns returns the fixed columns of the record type, then the selected
// optional fields in catalog order, then the sort column if not already
// present. Duplicate aliases are dropped.
func (g generator) columns() []column {
	cols := slices.Clone(baseColumns[g.rt])
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c.alias] = true
	}
	add := func(c column) {
		if seen[c.alias] {
			return
		}
		seen[c.alias] = true
		cols = append(cols, c)
	}

	for _, f := range fieldCatalog {
		if g.cfg.Fields[f.key] && f.appliesTo(g.rt) {
			add(f.col)
		}
	}
	if sort, ok := g.sortField(); ok {
		add(sort.col)
	}
	return cols
}

func (g generator) sortField() (fieldDef, bool) {
	if g.cfg.SortBy == "" {
		return fieldDef{}, false
	}
	f, ok := lookupField(g.cfg.SortBy)
	if !ok || !f.appliesTo(g.rt) {
		return fieldDef{}, false
	}
	return f, true
}

func (g generator) orderBy() string {
	order := slices.Clone(defaultOrder[g.rt])
	if sort, ok := g.sortField(); ok {
		order = append([]string{sort.col.alias + " DESC NULLS LAST"}, order...)
	}
	return "ORDER BY " + strings.Join(order, ", ") + "\n"
}

func writeColumns(b *strings.Builder, cols []column) {
	for i, c := range cols {
		b.WriteString("  " + c.expr)
		if c.alias != "" {
			b.WriteString(" AS " + c.alias)
		}
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
}

func monthsAgo(n int) string {
	return fmt.Sprintf("DATEADD(month, -%d, CURRENT_DATE)", n)
}

// literals trims and quotes each non-blank value.
func literals(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, "'"+escape(v)+"'")
	}
	return out
}

// naicsPrefixes returns the escaped, sorted, de-duplicated non-blank codes.
func naicsPrefixes(codes []string) []string {
	var out []string
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, escape(c))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

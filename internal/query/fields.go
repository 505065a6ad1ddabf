package query

// FieldKey names an optional display column.
type FieldKey string

const (
	FieldSiteName         FieldKey = "site_name"
	FieldSiteAddress      FieldKey = "site_address"
	FieldSiteCity         FieldKey = "site_city"
	FieldSiteState        FieldKey = "site_state"
	FieldSiteZip          FieldKey = "site_zip"
	FieldCustomerName     FieldKey = "customer_name"
	FieldCustomerStatus   FieldKey = "customer_status"
	FieldTotalSales       FieldKey = "total_sales"
	FieldLastOrderDate    FieldKey = "last_order_date"
	FieldLastActivityDate FieldKey = "last_activity_date"
	FieldOrgName          FieldKey = "org_name"
	FieldOrgNAICS         FieldKey = "org_naics"
	FieldContactPhone     FieldKey = "phone"
	FieldContactTitle     FieldKey = "title"
	FieldContactActivity  FieldKey = "contact_last_activity"
)

// column is one selectable SQL expression.
type column struct {
	expr  string
	alias string
}

type fieldDef struct {
	key   FieldKey
	col   column
	label string
	types []RecordType
}

func (f fieldDef) appliesTo(rt RecordType) bool {
	for _, t := range f.types {
		if t == rt {
			return true
		}
	}
	return false
}

var (
	siteOnly        = []RecordType{RecordSite}
	siteAndCustomer = []RecordType{RecordSite, RecordCustomer}
	allExports      = []RecordType{RecordSite, RecordCustomer, RecordContact}
	contactOnly     = []RecordType{RecordContact}
)

// fieldCatalog is in display order; selected optional columns are emitted in
// this order after the record type's fixed columns.
var fieldCatalog = []fieldDef{
	{FieldSiteName, column{"s.Name", "site_name"}, "Site Name", siteOnly},
	{FieldSiteAddress, column{"s.Street__c", "site_address"}, "Site Address", siteOnly},
	{FieldSiteCity, column{"s.City__c", "site_city"}, "Site City", siteOnly},
	{FieldSiteState, column{"s.State__c", "site_state"}, "Site State", siteOnly},
	{FieldSiteZip, column{"s.Zip__c", "site_zip"}, "Site Zip", []RecordType{RecordSite, RecordContact}},
	{FieldCustomerName, column{"c.Name", "customer_name"}, "Customer Name", allExports},
	{FieldCustomerStatus, column{"c.Status__c", "customer_status"}, "Customer Status", siteAndCustomer},
	{FieldTotalSales, column{"c.Total_Sales__c", "total_sales"}, "Total Sales", siteAndCustomer},
	{FieldLastOrderDate, column{"c.Last_Order_Date__c", "last_order_date"}, "Last Order Date", siteAndCustomer},
	{FieldLastActivityDate, column{"c.Last_Activity_Date__c", "last_activity_date"}, "Last Activity Date", siteAndCustomer},
	{FieldOrgName, column{"o.Name", "org_name"}, "Organization", allExports},
	{FieldOrgNAICS, column{"o.NAICS_Code__c", "org_naics"}, "NAICS Code", allExports},
	{FieldContactPhone, column{"ct.Phone", "phone"}, "Phone", contactOnly},
	{FieldContactTitle, column{"ct.Title", "title"}, "Title", contactOnly},
	{FieldContactActivity, column{"ct.LastActivityDate", "contact_last_activity"}, "Contact Last Activity", contactOnly},
}

// baseColumns are always selected for a record type.
var baseColumns = map[RecordType][]column{
	RecordSite: {
		{"s.Id", "site_id"},
		{"s.Related_Account__c", "customer_id"},
	},
	RecordCustomer: {
		{"c.Id", "customer_id"},
		{"c.Name", "customer_name"},
		{"c.Total_Sales__c", "total_sales"},
		{"c.Last_Order_Date__c", "last_order_date"},
	},
	RecordContact: {
		{"c.Id", "customer_id"},
		{"ct.Id", "contact_id"},
		{"ct.FirstName", "first_name"},
		{"ct.LastName", "last_name"},
		{"ct.Email", "email"},
	},
}

// defaultOrder is the ORDER BY tail of each export, by alias.
var defaultOrder = map[RecordType][]string{
	RecordSite:     {"site_id"},
	RecordCustomer: {"customer_id"},
	RecordContact:  {"customer_id", "last_name", "first_name"},
}

func lookupField(key FieldKey) (fieldDef, bool) {
	for _, f := range fieldCatalog {
		if f.key == key {
			return f, true
		}
	}
	return fieldDef{}, false
}

// Field describes a selectable column for callers building a config.
type Field struct {
	Key     FieldKey     `json:"key"`
	Label   string       `json:"label"`
	Applies []RecordType `json:"record_types"`
}

// Fields returns the catalog of optional display columns.
func Fields() []Field {
	out := make([]Field, len(fieldCatalog))
	for i, f := range fieldCatalog {
		out[i] = Field{Key: f.key, Label: f.label, Applies: append([]RecordType(nil), f.types...)}
	}
	return out
}

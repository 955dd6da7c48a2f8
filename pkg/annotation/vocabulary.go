package annotation

// The field and column vocabularies are fixed, versioned configuration.
// They are never derived from data at runtime: loading a document that lacks
// a vocabulary entry synthesizes it, and unknown names in a mutation are a
// caller bug, not user input.

// Names of the tabular fields.
const (
	FieldTable         = "Table"
	FieldLedgerDetails = "LedgerDetails"
	FieldROI           = "ROI"
)

// VocabEntry is one predefined field with its default display state: required
// fields always show, optional ones only once they carry data.
type VocabEntry struct {
	Name     string
	Required bool
}

// SingleFields lists the single-valued invoice fields in display order.
var SingleFields = []VocabEntry{
	{"InvoiceDate", true},
	{"InvoiceNumber", true},
	{"SupplierName", true},
	{"SupplierAddress", true},
	{"SupplierContactNo", true},
	{"SupplierEmail", true},
	{"SupplierGSTIN", true},
	{"SupplierPAN", true},
	{"SupplierState", true},
	{"BuyerName", true},
	{"BuyerAddress", true},
	{"BuyerContactNo", true},
	{"BuyerEmail", false},
	{"BuyerGSTIN", false},
	{"BuyerOrderDate", false},
	{"BuyerPAN", true},
	{"BuyerState", true},
	{"ConsigneeName", true},
	{"ConsigneeAddress", true},
	{"ConsigneeContactNo", true},
	{"ConsigneeEmail", true},
	{"ConsigneeGSTIN", true},
	{"ConsigneePAN", true},
	{"ConsigneeState", true},
	{"Destination", false},
	{"DispatchThrough", false},
	{"DocumentType", false},
	{"OrderNumber", false},
	{"OtherReference", false},
	{"PortofLoading", false},
	{"ReferenceNumber", false},
	{"ReferenceDate", false},
	{"TermsofPayment", false},
	{"SubAmount", true},
	{"TotalAmount", true},
}

// ItemColumns lists the line-item table columns in display order.
var ItemColumns = []VocabEntry{
	{"ItemBox", true},
	{"ItemName", false},
	{"ItemDescription", false},
	{"HSNSACCode", true},
	{"BilledQty", false},
	{"ActualQty", false},
	{"DiscountAmount", false},
	{"DiscountRate", false},
	{"ItemRate", true},
	{"ItemRateUOM", false},
	{"SGSTRate", false},
	{"SGSTAmount", false},
	{"CGSTRate", false},
	{"CGSTAmount", false},
	{"IGSTRate", false},
	{"IGSTAmount", false},
	{"TaxRate", false},
	{"TaxAmount", false},
	{"ItemAmount", true},
}

// LedgerColumns lists the ledger table columns.
var LedgerColumns = []VocabEntry{
	{"LedgerName", true},
	{"LedgerRate", true},
	{"LedgerAmount", true},
}

// ROIRegions lists the named page regions of the region-of-interest map.
var ROIRegions = []VocabEntry{
	{"Document_Info_block_pri", false},
	{"Buyer_address", false},
	{"Seller_address", false},
	{"Buyer_shipping", false},
	{"Table_pri", false},
	{"Table_sec", false},
	{"Amount_details", false},
	{"Total_amount", false},
	{"Document_Info_block_sec", false},
}

// ShapeOf returns the expected shape for a top-level vocabulary name.
func ShapeOf(name string) Shape {
	switch name {
	case FieldTable, FieldLedgerDetails:
		return ShapeTable
	case FieldROI:
		return ShapeRegionMap
	default:
		return ShapeSingle
	}
}

// ColumnsOf returns the predefined column vocabulary of a tabular field, or
// nil for non-tabular names.
func ColumnsOf(name string) []VocabEntry {
	switch name {
	case FieldTable:
		return ItemColumns
	case FieldLedgerDetails:
		return LedgerColumns
	case FieldROI:
		return ROIRegions
	default:
		return nil
	}
}

// FieldOrder returns every predefined top-level field name in display order,
// tabular fields last.
func FieldOrder() []string {
	names := make([]string, 0, len(SingleFields)+3)
	for _, e := range SingleFields {
		names = append(names, e.Name)
	}
	return append(names, FieldTable, FieldLedgerDetails, FieldROI)
}

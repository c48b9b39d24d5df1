package planscsv

// Profile describes the column layout of a plan CSV.
// Column names are matched case-insensitively; optional columns may be left empty.
type Profile struct {
	Name        string
	MerchantCol string
	PurchaseCol string
	NumberCol   string
	AmountCol   string
	DueCol      string
	TotalCol    string // optional; the total defaults to the sum of the installments
	StatusCol   string // optional; the status defaults to paid when a paid date is present
	PaidDateCol string
	PaidCol     string
	CreatedCol  string
	UpdatedCol  string
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	cols := []string{p.MerchantCol, p.PurchaseCol, p.NumberCol, p.AmountCol, p.DueCol}

	if p.TotalCol != "" {
		cols = append(cols, p.TotalCol)
	}

	if p.StatusCol != "" {
		cols = append(cols, p.StatusCol)
	}

	return cols
}

// profiles is the ordered list of layouts tried during auto-detection.
// More specific profiles come first.
var profiles = []Profile{
	{
		Name:        "export",
		MerchantCol: "merchant_name",
		PurchaseCol: "purchase_date",
		NumberCol:   "installment_number",
		AmountCol:   "amount",
		DueCol:      "due_date",
		TotalCol:    "total_amount",
		StatusCol:   "status",
		PaidDateCol: "paid_date",
		PaidCol:     "amount_paid",
		CreatedCol:  "created_at",
		UpdatedCol:  "updated_at",
	},
	{
		Name:        "schedule",
		MerchantCol: "merchant",
		PurchaseCol: "purchase date",
		NumberCol:   "installment",
		AmountCol:   "amount",
		DueCol:      "due date",
		PaidDateCol: "paid date",
		PaidCol:     "amount paid",
	},
}

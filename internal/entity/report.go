package entity

// ReportRequest describes an exportable report over a date window.
type ReportRequest struct {
	StartDate     string   `json:"start_date"` // YYYY-MM-DD inclusive
	EndDate       string   `json:"end_date"`   // YYYY-MM-DD inclusive
	Categories    []string `json:"categories,omitempty"`
	IncludeImages bool     `json:"include_images"`
	Format        string   `json:"format"` // "pdf" or "excel"
}

// CategoryBreakdown is one slice of the per-category spending split.
type CategoryBreakdown struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// VendorTotal is one entry of the top-vendors ranking.
type VendorTotal struct {
	Vendor string  `json:"vendor"`
	Amount float64 `json:"amount"`
}

// MonthlyTotal is one month of the spending trend.
type MonthlyTotal struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

// AnalyticsSummary aggregates spending over a set of expenses.
type AnalyticsSummary struct {
	TotalExpenses     float64             `json:"total_expenses"`
	ExpenseCount      int                 `json:"expense_count"`
	AverageExpense    float64             `json:"average_expense"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
	TopVendors        []VendorTotal       `json:"top_vendors"`
	MonthlyTrend      []MonthlyTotal      `json:"monthly_trend"`
}

package analytics

import (
	"sort"

	"github.com/receiptwise/receiptwise/internal/entity"
)

const topVendorLimit = 10

// Summarize computes spending aggregates over an already-filtered set
// of expenses. Pure computation: no storage coupling, no failure modes.
func Summarize(expenses []*entity.Expense) *entity.AnalyticsSummary {
	summary := &entity.AnalyticsSummary{
		CategoryBreakdown: []entity.CategoryBreakdown{},
		TopVendors:        []entity.VendorTotal{},
		MonthlyTrend:      []entity.MonthlyTotal{},
	}
	if len(expenses) == 0 {
		return summary
	}

	var total float64
	categoryTotals := make(map[string]float64)
	vendorTotals := make(map[string]float64)
	monthlyTotals := make(map[string]float64)

	for _, e := range expenses {
		total += e.Amount

		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		categoryTotals[cat] += e.Amount

		vendor := e.Vendor
		if vendor == "" {
			vendor = "Unknown"
		}
		vendorTotals[vendor] += e.Amount

		if len(e.Date) >= 7 {
			monthlyTotals[e.Date[:7]] += e.Amount
		}
	}

	summary.TotalExpenses = total
	summary.ExpenseCount = len(expenses)
	summary.AverageExpense = total / float64(len(expenses))

	for cat, amount := range categoryTotals {
		pct := 0.0
		if total > 0 {
			pct = amount / total * 100
		}
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, entity.CategoryBreakdown{
			Category:   cat,
			Amount:     amount,
			Percentage: pct,
		})
	}
	sort.Slice(summary.CategoryBreakdown, func(i, j int) bool {
		return summary.CategoryBreakdown[i].Amount > summary.CategoryBreakdown[j].Amount
	})

	for vendor, amount := range vendorTotals {
		summary.TopVendors = append(summary.TopVendors, entity.VendorTotal{Vendor: vendor, Amount: amount})
	}
	sort.Slice(summary.TopVendors, func(i, j int) bool {
		return summary.TopVendors[i].Amount > summary.TopVendors[j].Amount
	})
	if len(summary.TopVendors) > topVendorLimit {
		summary.TopVendors = summary.TopVendors[:topVendorLimit]
	}

	for month, amount := range monthlyTotals {
		summary.MonthlyTrend = append(summary.MonthlyTrend, entity.MonthlyTotal{Month: month, Amount: amount})
	}
	sort.Slice(summary.MonthlyTrend, func(i, j int) bool {
		return summary.MonthlyTrend[i].Month < summary.MonthlyTrend[j].Month
	})

	return summary
}

// Tags collects the distinct tags across expenses, sorted.
func Tags(expenses []*entity.Expense) []string {
	seen := make(map[string]struct{})
	for _, e := range expenses {
		for _, t := range e.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

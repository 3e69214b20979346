package scan

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receiptwise/receiptwise/constants"
)

var _ = Describe("ValidateAgainstSchema", func() {
	var schema map[string]any

	BeforeEach(func() {
		schema = BuildScanResultSchema(constants.AsStringSlice())
	})

	It("accepts a conforming result", func() {
		doc := []byte(`{
			"vendor": "Shell",
			"date": "2025-06-01",
			"amount": 55.00,
			"currency": "USD",
			"category": "Transportation",
			"line_items": [],
			"confidence_score": 0.9
		}`)
		Expect(ValidateAgainstSchema(schema, doc)).To(Succeed())
	})

	It("accepts a currency that is not a 3-letter code", func() {
		doc := []byte(`{
			"vendor": "Shell",
			"date": "2025-06-01",
			"amount": 55.00,
			"currency": "US Dollars",
			"category": "Transportation",
			"line_items": [],
			"confidence_score": 0.9
		}`)
		Expect(ValidateAgainstSchema(schema, doc)).To(Succeed())
	})

	It("rejects a negative amount", func() {
		doc := []byte(`{
			"vendor": "Shell",
			"date": "2025-06-01",
			"amount": -5,
			"currency": "USD",
			"category": "Transportation",
			"line_items": [],
			"confidence_score": 0.9
		}`)
		Expect(ValidateAgainstSchema(schema, doc)).NotTo(Succeed())
	})

	It("rejects a category outside the taxonomy", func() {
		doc := []byte(`{
			"vendor": "Shell",
			"date": "2025-06-01",
			"amount": 5,
			"currency": "USD",
			"category": "Fuel",
			"line_items": [],
			"confidence_score": 0.9
		}`)
		Expect(ValidateAgainstSchema(schema, doc)).NotTo(Succeed())
	})

	It("rejects missing required fields", func() {
		Expect(ValidateAgainstSchema(schema, []byte(`{"vendor": "Shell"}`))).NotTo(Succeed())
	})
})

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receiptwise/receiptwise/internal/auth"
	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/export"
	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm"
	"github.com/receiptwise/receiptwise/internal/repository"
	"github.com/receiptwise/receiptwise/internal/scan"
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

type stubProvider struct {
	identity *auth.Identity
	err      error
}

func (p *stubProvider) ExchangeSession(_ context.Context, _ string) (*auth.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

type stubExtractor struct {
	response string
	err      error
}

func (e *stubExtractor) Extract(_ context.Context, _ *imaging.NormalizedImage, _ string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.response, nil
}

func receiptJPEG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 235, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func multipartUpload(filename, contentType string, data []byte) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		panic(err)
	}
	if _, err := part.Write(data); err != nil {
		panic(err)
	}
	if err := mw.Close(); err != nil {
		panic(err)
	}
	return &buf, mw.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		srv       *httptest.Server
		extractor *stubExtractor
		provider  *stubProvider
		token     string
		client    *http.Client
	)

	doJSON := func(method, path string, body any) *http.Response {
		var rd io.Reader
		if body != nil {
			bs, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			rd = bytes.NewReader(bs)
		}
		req, err := http.NewRequest(method, srv.URL+path, rd)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := client.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, v any) {
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
	}

	BeforeEach(func() {
		db, err := repository.Open(filepath.Join(GinkgoT().TempDir(), "test.db"), time.Second, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = db.Close() })

		expenses := repository.NewExpenseRepository(db, nil)
		sessions := repository.NewSessionRepository(db, nil)

		provider = &stubProvider{identity: &auth.Identity{Email: "dev@example.com", Name: "Dev"}}
		authSvc := auth.NewService(provider, sessions, time.Hour, nil)

		extractor = &stubExtractor{
			response: `{"vendor": "Blue Bottle", "date": "2025-06-10", "amount": 6.75, "category": "Meals & Dining", "confidence_score": 0.95}`,
		}
		scanner := scan.NewScanner(extractor, imaging.Limits{}, nil)

		srv = httptest.NewServer(New(scanner, authSvc, expenses, export.NewService(nil), nil))
		DeferCleanup(srv.Close)

		client = srv.Client()

		resp := doJSON(http.MethodPost, "/api/auth/session", map[string]string{"session_id": "provider-session"})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var login struct {
			SessionToken string `json:"session_token"`
		}
		decode(resp, &login)
		token = login.SessionToken
		Expect(token).NotTo(BeEmpty())
	})

	Describe("auth", func() {
		It("returns the current user", func() {
			resp := doJSON(http.MethodGet, "/api/auth/me", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var user entity.User
			decode(resp, &user)
			Expect(user.Email).To(Equal("dev@example.com"))
		})

		It("rejects requests without a token", func() {
			token = ""
			resp := doJSON(http.MethodGet, "/api/auth/me", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("rejects an invalid provider session", func() {
			provider.err = auth.ErrInvalidSession
			token = ""
			resp := doJSON(http.MethodPost, "/api/auth/session", map[string]string{"session_id": "bad"})
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("invalidates the session on logout", func() {
			resp := doJSON(http.MethodPost, "/api/auth/logout", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = doJSON(http.MethodGet, "/api/auth/me", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("scan-receipt", func() {
		scanUpload := func(data []byte) *http.Response {
			body, contentType := multipartUpload("receipt.jpg", "image/jpeg", data)
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/scan-receipt", body)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := client.Do(req)
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("returns the parsed extraction", func() {
			resp := scanUpload(receiptJPEG())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var result entity.ScanResult
			decode(resp, &result)
			Expect(result.Vendor).To(Equal("Blue Bottle"))
			Expect(result.Category).To(Equal("Meals & Dining"))
		})

		It("rejects a PDF with 400", func() {
			resp := scanUpload([]byte("%PDF-1.7 not an image"))
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			var e errorResponse
			decode(resp, &e)
			Expect(e.Kind).To(Equal("unsupported_format"))
		})

		It("maps provider timeouts to 504", func() {
			extractor.err = llm.ErrTimeout
			resp := scanUpload(receiptJPEG())
			Expect(resp.StatusCode).To(Equal(http.StatusGatewayTimeout))
		})

		It("maps provider errors to 502", func() {
			extractor.err = &llm.ProviderError{StatusCode: 529, Body: "overloaded"}
			resp := scanUpload(receiptJPEG())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
			var e errorResponse
			decode(resp, &e)
			Expect(e.Error).To(Equal("AI service error"))
		})

		It("maps unparsable responses to 500", func() {
			extractor.response = "no JSON here"
			resp := scanUpload(receiptJPEG())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			var e errorResponse
			decode(resp, &e)
			Expect(e.Kind).To(Equal("malformed_response"))
		})
	})

	Describe("expenses", func() {
		create := func() string {
			resp := doJSON(http.MethodPost, "/api/expenses", map[string]any{
				"vendor":   "Whole Foods",
				"date":     "2025-06-01",
				"amount":   54.20,
				"category": "Groceries",
				"tags":     []string{"food"},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var out struct {
				ExpenseID string `json:"expense_id"`
				Message   string `json:"message"`
			}
			decode(resp, &out)
			Expect(out.Message).To(Equal("Expense created successfully"))
			return out.ExpenseID
		}

		It("creates and fetches an expense", func() {
			id := create()
			resp := doJSON(http.MethodGet, "/api/expenses/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var exp entity.Expense
			decode(resp, &exp)
			Expect(exp.Vendor).To(Equal("Whole Foods"))
			Expect(exp.Currency).To(Equal("USD"))
		})

		It("lists with filters", func() {
			create()
			resp := doJSON(http.MethodGet, "/api/expenses?category=Groceries&min_amount=50", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var got []entity.Expense
			decode(resp, &got)
			Expect(got).To(HaveLen(1))

			resp = doJSON(http.MethodGet, "/api/expenses?category=Travel", nil)
			var none []entity.Expense
			decode(resp, &none)
			Expect(none).To(BeEmpty())
		})

		It("applies partial updates", func() {
			id := create()
			resp := doJSON(http.MethodPut, "/api/expenses/"+id, map[string]any{"amount": 60.00})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = doJSON(http.MethodGet, "/api/expenses/"+id, nil)
			var exp entity.Expense
			decode(resp, &exp)
			Expect(exp.Amount).To(Equal(60.00))
			Expect(exp.Vendor).To(Equal("Whole Foods"))
		})

		It("deletes and then 404s", func() {
			id := create()
			resp := doJSON(http.MethodDelete, "/api/expenses/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp = doJSON(http.MethodGet, "/api/expenses/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("bulk deletes and reports the count", func() {
			a, b := create(), create()
			resp := doJSON(http.MethodPost, "/api/expenses/bulk-delete", map[string]any{
				"expense_ids": []string{a, b, "exp_missing"},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var out struct {
				DeletedCount int `json:"deleted_count"`
			}
			decode(resp, &out)
			Expect(out.DeletedCount).To(Equal(2))
		})
	})

	Describe("analytics and metadata", func() {
		BeforeEach(func() {
			resp := doJSON(http.MethodPost, "/api/expenses", map[string]any{
				"vendor": "Delta Air Lines", "date": "2025-06-05", "amount": 300.0, "category": "Travel", "tags": []string{"work"},
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("summarizes spending", func() {
			resp := doJSON(http.MethodGet, "/api/analytics/summary", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var s entity.AnalyticsSummary
			decode(resp, &s)
			Expect(s.TotalExpenses).To(Equal(300.0))
			Expect(s.ExpenseCount).To(Equal(1))
		})

		It("lists distinct tags", func() {
			resp := doJSON(http.MethodGet, "/api/tags", nil)
			var out struct {
				Tags []string `json:"tags"`
			}
			decode(resp, &out)
			Expect(out.Tags).To(Equal([]string{"work"}))
		})

		It("serves the category taxonomy without auth", func() {
			token = ""
			resp := doJSON(http.MethodGet, "/api/categories", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var out struct {
				Categories []string `json:"categories"`
			}
			decode(resp, &out)
			Expect(out.Categories).To(HaveLen(10))
		})
	})

	Describe("reports", func() {
		BeforeEach(func() {
			resp := doJSON(http.MethodPost, "/api/expenses", map[string]any{
				"vendor": "AWS", "date": "2025-06-15", "amount": 120.0, "category": "Software & Subscriptions",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			resp.Body.Close()
		})

		It("generates a PDF attachment", func() {
			resp := doJSON(http.MethodPost, "/api/reports/generate", map[string]any{
				"start_date": "2025-06-01", "end_date": "2025-06-30", "format": "pdf",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("expense_report_2025-06-01_2025-06-30.pdf"))
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			Expect(err).NotTo(HaveOccurred())
			Expect(bytes.HasPrefix(body, []byte("%PDF"))).To(BeTrue())
		})

		It("generates an Excel attachment", func() {
			resp := doJSON(http.MethodPost, "/api/reports/generate", map[string]any{
				"start_date": "2025-06-01", "end_date": "2025-06-30", "format": "excel",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring(".xlsx"))
		})

		It("rejects unknown formats", func() {
			resp := doJSON(http.MethodPost, "/api/reports/generate", map[string]any{
				"start_date": "2025-06-01", "end_date": "2025-06-30", "format": "csv",
			})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("health", func() {
		It("responds without auth", func() {
			token = ""
			resp := doJSON(http.MethodGet, "/api/health", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})

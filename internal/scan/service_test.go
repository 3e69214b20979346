package scan

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm"
)

type stubExtractor struct {
	response string
	err      error
	gotImg   *imaging.NormalizedImage
	gotText  string
}

func (s *stubExtractor) Extract(_ context.Context, img *imaging.NormalizedImage, prompt string) (string, error) {
	s.gotImg = img
	s.gotText = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var _ = Describe("Scanner", func() {
	var (
		stub    *stubExtractor
		scanner *Scanner
		limits  imaging.Limits
		input   []byte
		result  *entity.ScanResult
		err     error
	)

	BeforeEach(func() {
		stub = &stubExtractor{
			response: `{"vendor": "Delta Air Lines", "date": "2025-06-01", "amount": 412.00, "category": "Travel", "confidence_score": 0.9}`,
		}
		limits = imaging.Limits{}
		input = testJPEG(64, 48)
	})

	JustBeforeEach(func() {
		scanner = NewScanner(stub, limits, nil)
		result, err = scanner.Scan(context.Background(), input)
	})

	When("the provider returns a clean extraction", func() {
		It("should succeed", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Vendor).To(Equal("Delta Air Lines"))
			Expect(result.Category).To(Equal("Travel"))
		})

		It("should hand the extractor a normalized JPEG", func() {
			Expect(stub.gotImg).NotTo(BeNil())
			Expect(stub.gotImg.MediaType).To(Equal("image/jpeg"))
		})

		It("should include the category taxonomy in the prompt", func() {
			Expect(stub.gotText).To(ContainSubstring("Meals & Dining"))
			Expect(stub.gotText).To(ContainSubstring("Transportation"))
		})
	})

	When("configured with a custom dimension bound", func() {
		BeforeEach(func() {
			limits = imaging.Limits{MaxDimensionPx: 32}
			input = testJPEG(64, 48)
		})

		It("should normalize with the configured bound", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(stub.gotImg.Width).To(Equal(32))
			Expect(stub.gotImg.Height).To(Equal(24))
		})
	})

	When("the provider spells the currency out", func() {
		BeforeEach(func() {
			stub.response = `{"vendor": "Delta Air Lines", "date": "2025-06-01", "amount": 412.00, "currency": "US Dollars", "category": "Travel"}`
		})

		It("should pass the currency text through untouched", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Currency).To(Equal("US Dollars"))
		})
	})

	When("the provider invents a category outside the taxonomy", func() {
		BeforeEach(func() {
			stub.response = `{"vendor": "Petco", "date": "2025-06-01", "amount": 12.00, "category": "Pet Supplies"}`
		})

		It("should normalize it to Other", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Category).To(Equal("Other"))
		})
	})

	When("the provider responds with prose", func() {
		BeforeEach(func() {
			stub.response = "Sorry, I can't read this image."
		})

		It("should return a malformed response error", func() {
			Expect(err).To(MatchError(ErrMalformedResponse))
		})
	})

	When("the provider times out", func() {
		BeforeEach(func() {
			stub.err = llm.ErrTimeout
		})

		It("should pass the timeout through unchanged", func() {
			Expect(err).To(MatchError(llm.ErrTimeout))
		})
	})

	When("the upload is a PDF", func() {
		BeforeEach(func() {
			input = []byte("%PDF-1.7\nnot really a pdf body")
		})

		It("should reject it without calling the provider", func() {
			Expect(err).To(MatchError(imaging.ErrUnsupportedFormat))
			Expect(stub.gotImg).To(BeNil())
		})
	})

	When("the upload is unreadable garbage", func() {
		BeforeEach(func() {
			input = []byte{0x00, 0x01, 0x02, 0x03}
		})

		It("should return a decode error", func() {
			Expect(err).To(MatchError(imaging.ErrDecode))
		})
	})
})

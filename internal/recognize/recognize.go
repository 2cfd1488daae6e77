// Package recognize extracts expense line items from photographed receipts
// ("nota toko bangunan"). A Recognizer turns one image into a structured
// receipt; ScanBatch fans a multi-image upload out in parallel and
// substitutes a fallback line item for any image that fails, so captured
// evidence is never dropped.
package recognize

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ReceiptItem is one extracted line of a receipt.
type ReceiptItem struct {
	Description  string          `json:"description"`
	Volume       decimal.Decimal `json:"volume"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

// Receipt is the structured result for one image.
type Receipt struct {
	Date  string        `json:"date"`
	Items []ReceiptItem `json:"items"`
}

// Recognizer parses a single receipt image, supplied as a data URI.
type Recognizer interface {
	Parse(ctx context.Context, imageDataURI string) (*Receipt, error)
}

var dataURIRe = regexp.MustCompile(`^data:(image/(?:png|jpeg|jpg|webp));base64,`)

// splitDataURI returns the MIME type and raw base64 payload of an image
// data URI. Inputs without a recognizable prefix are assumed to be bare
// JPEG base64, matching what camera uploads produce.
func splitDataURI(uri string) (mimeType, payload string) {
	if m := dataURIRe.FindStringSubmatch(uri); m != nil {
		return m[1], strings.TrimPrefix(uri, m[0])
	}
	return "image/jpeg", uri
}

func validBase64(s string) bool {
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}

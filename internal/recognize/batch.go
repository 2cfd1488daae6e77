package recognize

import (
	"context"
	"fmt"
	"log/slog"

	"kopdes/internal/core"
	"kopdes/internal/store"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Image is one uploaded receipt photo. Name is the original filename,
// used in the fallback description.
type Image struct {
	Name    string `json:"name"`
	DataURI string `json:"dataUri"`
}

// ScanBatch recognizes a set of receipt images in parallel and returns the
// merged expense partials in upload order. The caller's category is stamped
// on every item: a material scan and a rental-receipt scan land in different
// buckets even though the extraction is identical. A failed image
// contributes one editable fallback item carrying the raw photo, so one bad
// scan never blocks or discards the rest of the batch.
func ScanBatch(ctx context.Context, rec Recognizer, images []Image, category core.Category, concurrency int) []store.ExpensePartial {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([][]store.ExpensePartial, len(images))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, img := range images {
		g.Go(func() error {
			receipt, err := rec.Parse(ctx, img.DataURI)
			if err != nil || receipt == nil {
				slog.WarnContext(ctx, "Receipt scan failed, substituting fallback item",
					"image", img.Name, "error", err)
				results[i] = []store.ExpensePartial{fallbackItem(img, category)}
				return nil
			}
			results[i] = receiptToPartials(receipt, img, category)
			return nil
		})
	}
	g.Wait()

	var out []store.ExpensePartial
	for _, items := range results {
		out = append(out, items...)
	}
	return out
}

func receiptToPartials(receipt *Receipt, img Image, category core.Category) []store.ExpensePartial {
	if len(receipt.Items) == 0 {
		return []store.ExpensePartial{fallbackItem(img, category)}
	}
	out := make([]store.ExpensePartial, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		total := item.TotalPrice
		p := store.ExpensePartial{
			Date:          receipt.Date,
			Category:      category,
			Description:   item.Description,
			Volume:        item.Volume,
			Unit:          item.Unit,
			PricePerUnit:  item.PricePerUnit,
			TotalPrice:    &total,
			EvidenceImage: img.DataURI,
		}
		if p.Volume.IsZero() {
			p.Volume = decimal.NewFromInt(1)
		}
		if p.Unit == "" {
			p.Unit = "ls"
		}
		out = append(out, p)
	}
	return out
}

// fallbackItem preserves a failed scan as a zero-priced line the user can
// fill in manually, with the photo attached as evidence.
func fallbackItem(img Image, category core.Category) store.ExpensePartial {
	name := img.Name
	if name == "" {
		name = "nota"
	}
	return store.ExpensePartial{
		Category:      category,
		Description:   fmt.Sprintf("Nota Gagal Scan (%s)", name),
		Volume:        decimal.NewFromInt(1),
		Unit:          "ls",
		PricePerUnit:  decimal.Zero,
		EvidenceImage: img.DataURI,
	}
}

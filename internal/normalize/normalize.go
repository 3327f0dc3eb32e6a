// Package normalize converts the loosely-typed extracted field set into
// publish-ready values. Pure transformation: no I/O, no failure path.
package normalize

import (
	"crypto/rand"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"listing-backend/internal/model"
)

// Defaults applied when the extractor could not resolve a field. Prices are
// in the base currency unit (INR rupees).
const (
	DefaultPrice      = 1000
	DefaultCost       = 500
	MinCost           = 500
	MarkupAmount      = 2000 // flat promotional compare-at markup
	DefaultSize       = "Free Size"
	DefaultTitle      = "Untitled Product"
	DefaultBody       = "<p>Details to follow.</p>"
	DefaultType       = "Apparel"
	DefaultSizeGuide  = "Standard sizing applies."
	DefaultCategory   = "Fashion"
	DefaultCollection = "New Arrivals"
	MarginFallback    = "not calculated"
)

// Normalize fills absent or invalid fields with category-appropriate
// defaults and computes the derived values. The result always satisfies:
// every field non-empty, Price > CostPrice > 0, CompareAtPrice = Price +
// MarkupAmount.
func Normalize(f *model.ExtractedFields, vendor string) *model.NormalizedFields {
	price := DigitsOnly(f.Price)
	if price <= 0 {
		price = DefaultPrice
	}
	cost := DigitsOnly(f.CostPrice)
	if cost <= 0 {
		cost = DefaultCost
	}
	if cost >= price {
		cost = price - 1000
		if cost < MinCost {
			cost = MinCost
		}
	}

	if vendor == "" {
		vendor = model.DefaultVendor
	}

	productType := fallback(f.ProductType, DefaultType)
	fabric := strings.TrimSpace(f.Fabric)
	style := strings.TrimSpace(f.Style)

	return &model.NormalizedFields{
		Title:            fallback(f.Title, DefaultTitle),
		BodyHTML:         fallback(f.BodyHTML, DefaultBody),
		Vendor:           vendor,
		ProductType:      productType,
		Category:         fallback(f.Category, DefaultCategory),
		Size:             fallback(f.Size, DefaultSize),
		Tags:             AssembleTags(f.Tags, productType, fabric, style),
		Price:            price,
		CostPrice:        cost,
		CompareAtPrice:   price + MarkupAmount,
		SKU:              GenerateSKU(),
		Collections:      splitList(fallback(f.Collections, DefaultCollection)),
		Fabric:           fabric,
		Style:            style,
		Pattern:          strings.TrimSpace(f.Pattern),
		WorkDetails:      strings.TrimSpace(f.WorkDetails),
		Colour:           strings.TrimSpace(f.Colour),
		SizeGuide:        fallback(f.SizeGuide, DefaultSizeGuide),
		CareInstructions: fallback(f.CareInstructions, CareInstructions(fabric)),
		ProfitMargin:     MarginPercent(price, cost),
	}
}

// DigitsOnly strips every non-digit character and parses the remainder.
// Returns 0 when nothing numeric remains or the digits exceed int range,
// e.g. for "₹12,500/-" it returns 12500 and for "TBD" it returns 0; the
// caller then applies its default.
func DigitsOnly(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// AssembleTags splits the comma-joined tag string, trims whitespace, drops
// empties, then unions in the lower-cased product type, fabric and style.
// Duplicates are removed; first-seen order is kept for determinism.
func AssembleTags(tags, productType, fabric, style string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	for _, tag := range strings.Split(tags, ",") {
		add(tag)
	}
	add(strings.ToLower(productType))
	add(strings.ToLower(fabric))
	add(strings.ToLower(style))
	return out
}

// CareInstructions picks a fabric-conditional default. Silk-family fabrics
// (including blends) need dry cleaning; cotton washes by hand.
func CareInstructions(fabric string) string {
	lower := strings.ToLower(fabric)
	switch {
	case strings.Contains(lower, "silk"):
		return "Dry clean recommended"
	case strings.Contains(lower, "cotton"):
		return "Hand wash in cold water"
	default:
		return "Machine wash cold"
	}
}

// MarginPercent computes (price - cost) / price as a percentage string,
// e.g. "37.5%". A zero price reports the fallback text rather than
// dividing by zero.
func MarginPercent(price, cost int) string {
	if price == 0 {
		return MarginFallback
	}
	margin := decimal.NewFromInt(int64(price - cost)).
		Div(decimal.NewFromInt(int64(price))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return margin.String() + "%"
}

const skuAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateSKU produces a 5-character uppercase alphanumeric code. Unique
// per call; collisions across calls are not mitigated.
func GenerateSKU() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = skuAlphabet[int(b)%len(skuAlphabet)]
	}
	return string(buf)
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

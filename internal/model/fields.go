package model

// ExtractedFields is the best-effort structured output of the inference
// step. Every value is a raw string; the normalizer owns validation and
// defaulting, so nothing here is guaranteed non-empty or numeric.
type ExtractedFields struct {
	Title            string `json:"title"`
	BodyHTML         string `json:"body_html"`
	Price            string `json:"price"`
	CostPrice        string `json:"cost_price"`
	Size             string `json:"size"`
	Tags             string `json:"tags"`
	ProductType      string `json:"product_type"`
	Category         string `json:"category"`
	Fabric           string `json:"fabric"`
	Style            string `json:"style"`
	Pattern          string `json:"pattern"`
	WorkDetails      string `json:"work_details"`
	Colour           string `json:"colour"`
	Collections      string `json:"collections"`
	SizeGuide        string `json:"size_guide"`
	CareInstructions string `json:"care_instructions"`
}

// NormalizedFields is the publish-ready field set. All strings are
// non-empty, prices are positive integers with Price > CostPrice.
type NormalizedFields struct {
	Title            string
	BodyHTML         string
	Vendor           string
	ProductType      string
	Category         string
	Size             string
	Tags             []string
	Price            int
	CostPrice        int
	CompareAtPrice   int
	SKU              string
	Collections      []string
	Fabric           string
	Style            string
	Pattern          string
	WorkDetails      string
	Colour           string
	SizeGuide        string
	CareInstructions string
	ProfitMargin     string
}

// MediaReference is one hosted image. Position mirrors the input image
// order and drives the "View N" captions.
type MediaReference struct {
	URL      string
	Position int
}

// PublishedProduct is the storefront-side entity created by the catalog
// publisher. Price and CostPrice are the values the platform actually
// accepted, which may differ from the normalizer's tentative values.
type PublishedProduct struct {
	ID             int64
	Title          string
	Price          int
	CostPrice      int
	CompareAtPrice int
	SKU            string
}

// CollectionRef is a named taxonomy node on the storefront, keyed by
// case-insensitive title.
type CollectionRef struct {
	ID     int64
	Title  string
	Handle string
}

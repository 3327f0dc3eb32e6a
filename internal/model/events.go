package model

// ListingAccepted is the event emitted after a product has been published
// to the storefront. It is published to listing.accepted as fire-and-forget
// observability; nothing in the pipeline consumes it.
type ListingAccepted struct {
	SubmissionID     string `json:"submission_id"`
	Sender           string `json:"sender"`
	Vendor           string `json:"vendor"`
	ShopifyProductID int64  `json:"shopify_product_id"`
	Title            string `json:"title"`
	Price            int    `json:"price"`
	CompareAtPrice   int    `json:"compare_at_price"`
	Timestamp        string `json:"timestamp"`
}

package shopify

// Request and response envelopes for the Admin REST API. Shopify wraps
// every resource in a single-key JSON object.

type productCreateRequest struct {
	Product productPayload `json:"product"`
}

type productPayload struct {
	Title          string           `json:"title"`
	BodyHTML       string           `json:"body_html"`
	Vendor         string           `json:"vendor"`
	ProductType    string           `json:"product_type"`
	Handle         string           `json:"handle"`
	Tags           string           `json:"tags"`
	PublishedScope string           `json:"published_scope"`
	Status         string           `json:"status"`
	Options        []productOption  `json:"options"`
	Variants       []productVariant `json:"variants"`
	Images         []productImage   `json:"images"`
}

type productOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type productVariant struct {
	Price                string  `json:"price"`
	CompareAtPrice       string  `json:"compare_at_price"`
	SKU                  string  `json:"sku"`
	Option1              string  `json:"option1"`
	Taxable              bool    `json:"taxable"`
	InventoryQuantity    int     `json:"inventory_quantity"`
	InventoryPolicy      string  `json:"inventory_policy"`
	InventoryManagement  string  `json:"inventory_management"`
	Weight               float64 `json:"weight"`
	WeightUnit           string  `json:"weight_unit"`
	RequiresShipping     bool    `json:"requires_shipping"`
	CountryCodeOfOrigin  string  `json:"country_code_of_origin"`
	HarmonizedSystemCode string  `json:"harmonized_system_code"`
	Cost                 string  `json:"cost,omitempty"`
}

type productImage struct {
	Src      string `json:"src"`
	Alt      string `json:"alt"`
	Position int    `json:"position"`
}

type productCreateResponse struct {
	Product struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Variants []struct {
			ID             int64  `json:"id"`
			Price          string `json:"price"`
			CompareAtPrice string `json:"compare_at_price"`
			SKU            string `json:"sku"`
		} `json:"variants"`
	} `json:"product"`
}

type customCollection struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	Handle   string `json:"handle,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
}

type collectionListResponse struct {
	CustomCollections []customCollection `json:"custom_collections"`
}

type collectionCreateRequest struct {
	CustomCollection customCollection `json:"custom_collection"`
}

type collectionCreateResponse struct {
	CustomCollection customCollection `json:"custom_collection"`
}

type collectRequest struct {
	Collect collectPayload `json:"collect"`
}

type collectPayload struct {
	ProductID    int64 `json:"product_id"`
	CollectionID int64 `json:"collection_id"`
}

type metafieldRequest struct {
	Metafield metafieldPayload `json:"metafield"`
}

type metafieldPayload struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}

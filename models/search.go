package models

type SearchPostRequest struct {
	// Text to find similar documentation chunks for.
	Text string `json:"text"`

	// Tenant restricts the search to a single documentation namespace. Unknown
	// or empty values search all tenants.
	Tenant string `json:"tenant,omitempty"`
}

type SearchPostResponse struct {
	Results []SearchResult `json:"results"`
}

type SearchResult struct {
	ID       string  `json:"id"`
	Tenant   string  `json:"tenant"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Distance float64 `json:"distance"`
}

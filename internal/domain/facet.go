package domain

import "time"

// Facet sources
const (
	FacetSourcePlatform = "platform"
	FacetSourceProducts = "products"
	FacetSourceFallback = "fallback"
)

// Facet is a counted grouping (category or tag) used for filtering
type Facet struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetSet is the aggregated category and tag facets of a catalog
type FacetSet struct {
	Categories []Facet   `json:"categories"`
	Tags       []Facet   `json:"tags"`
	Source     string    `json:"source"`
	Error      string    `json:"error,omitempty"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

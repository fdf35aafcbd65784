package model

// SearchResult is what one pipeline invocation hands to the presentation layer.
type SearchResult struct {
	ID         string            `json:"id"`
	Query      SearchQuery       `json:"query"`
	References []GeoReference    `json:"references,omitempty"`
	Unresolved []string          `json:"unresolved,omitempty"` // place names with no geocoding result
	Center     *Point            `json:"center,omitempty"`
	Extent     Extent            `json:"extent"`
	RawCount   int               `json:"raw_count"`
	Records    []CanonicalRecord `json:"records"`
}

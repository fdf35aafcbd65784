package model

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is a lon/lat bounding box in GeoJSON order.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// GeoReference is the outcome of geocoding one place name. It is built once
// per search and never modified afterwards.
type GeoReference struct {
	Label       string   `json:"label"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	PostalCodes []string `json:"postal_codes"`
	CityCode    string   `json:"city_code,omitempty"`
	BBox        *BBox    `json:"bounding_box,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// Point returns the reference coordinate.
func (g GeoReference) Point() Point {
	return Point{Lat: g.Latitude, Lon: g.Longitude}
}

// Extent describes how a map should frame a set of references.
type Extent struct {
	Center Point   `json:"center"`
	Zoom   float64 `json:"zoom"`
	BBox   *BBox   `json:"bounding_box,omitempty"`
}

package model

// RawRecord is one upstream listing row as decoded from JSON. No field is
// guaranteed to exist and the key set may change between pages.
type RawRecord map[string]any

// Class is a DPE/GES letter rating. The empty Class means unknown.
type Class string

const (
	ClassA Class = "A"
	ClassB Class = "B"
	ClassC Class = "C"
	ClassD Class = "D"
	ClassE Class = "E"
	ClassF Class = "F"
	ClassG Class = "G"
)

// Classes lists every valid rating in order.
var Classes = []Class{ClassA, ClassB, ClassC, ClassD, ClassE, ClassF, ClassG}

// Valid reports whether c is one of A..G.
func (c Class) Valid() bool {
	return len(c) == 1 && c[0] >= 'A' && c[0] <= 'G'
}

// CanonicalRecord is the normalized form of a DPE diagnostic.
// Latitude and Longitude are either both nil or both set.
type CanonicalRecord struct {
	RecordID       string   `json:"record_id"`
	Address        string   `json:"address"`
	PostalCode     string   `json:"postal_code"`
	City           string   `json:"city"`
	CityCode       string   `json:"city_code,omitempty"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	EnergyClass    Class    `json:"energy_class,omitempty"`
	EmissionsClass Class    `json:"emissions_class,omitempty"`
	SurfaceM2      *float64 `json:"habitable_surface_m2"`
	AssessmentDate string   `json:"assessment_date,omitempty"`

	// DistanceKM and Proximity are set by the pipeline when the search has a
	// center and the record is locatable.
	DistanceKM *float64 `json:"distance_km,omitempty"`
	Proximity  string   `json:"proximity,omitempty"`

	// Transactions is populated by enrichment only. It is non-nil (possibly
	// empty) once enrichment has run for this record's address.
	Transactions []TransactionRecord `json:"transactions,omitempty"`
}

// Locatable reports whether the record carries a usable coordinate pair.
func (r CanonicalRecord) Locatable() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Point returns the record coordinate, or nil when it is not locatable.
func (r CanonicalRecord) Point() *Point {
	if !r.Locatable() {
		return nil
	}
	return &Point{Lat: *r.Latitude, Lon: *r.Longitude}
}

// TransactionRecord is one DVF property sale attached to an address.
type TransactionRecord struct {
	Date         string   `json:"date"`
	Amount       *float64 `json:"amount"`
	PropertyType string   `json:"property_type"`
	SurfaceM2    *float64 `json:"surface_m2"`
	Nature       string   `json:"nature,omitempty"`
	Rooms        *int     `json:"rooms,omitempty"`
}

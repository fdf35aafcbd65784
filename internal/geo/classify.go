package geo

// Proximity bands of a record relative to the search radius.
const (
	ProximityCore   = "core"
	ProximityInner  = "inner"
	ProximityOuter  = "outer"
	ProximityBeyond = "beyond"
)

// Band thresholds as fractions of the radius.
const (
	coreFraction  = 0.25
	innerFraction = 0.6
)

// Classify returns the proximity band for a point distanceKM from the search
// center. Rules:
//   - core: distance <= 25% of the radius
//   - inner: distance <= 60% of the radius
//   - outer: distance <= radius
//   - beyond: anything further, or an unusable distance/radius
func Classify(distanceKM, radiusKM float64) string {
	// NaN fails every comparison and falls through to beyond.
	switch {
	case radiusKM <= 0:
		return ProximityBeyond
	case distanceKM <= coreFraction*radiusKM:
		return ProximityCore
	case distanceKM <= innerFraction*radiusKM:
		return ProximityInner
	case distanceKM <= radiusKM:
		return ProximityOuter
	default:
		return ProximityBeyond
	}
}

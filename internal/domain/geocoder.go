package domain

import "context"

// Geocoder resolves a candidate street address to coordinates.
type Geocoder interface {
	// Resolve returns the coordinates for street, or found=false when the
	// provider has no match. A well-formed request that finds nothing is not
	// an error.
	Resolve(ctx context.Context, street string) (Coordinates, bool, error)
}

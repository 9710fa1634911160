package performer

import (
	"errors"

	"runmatch/pkg/types"
)

// ErrNotFound indicates an unknown performer id.
var ErrNotFound = errors.New("performer: not found")

// Profile is the live snapshot of one performer: where they are,
// whether they take work right now, and their aggregate rating.
type Profile struct {
	ID        string         `bson:"_id" json:"id"`
	Location  types.Location `bson:"location" json:"location"`
	Available bool           `bson:"available" json:"available"`
	Rating    float64        `bson:"rating" json:"rating"`
}

package performer

import "context"

// Repository reads the live performer snapshot. ListAvailable returns
// everyone currently taking work; radius filtering is the locator's job
// so the distance metric stays in one place.
type Repository interface {
	Get(ctx context.Context, id string) (*Profile, error)
	ListAvailable(ctx context.Context) ([]Profile, error)

	Upsert(ctx context.Context, p *Profile) error
}

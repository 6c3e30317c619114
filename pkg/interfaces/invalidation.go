package interfaces

import "context"

// ListingInvalidator is notified after a mutation of a translatable entity so
// the rendering layer can drop cached listing pages for that entity kind.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context, kind string) error
}

package service

import (
	"context"

	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
)

const (
	profileSet       = "profile"
	contactRecordKey = "contact"
)

// storeDirectory resolves contact details from the user's profile record set.
type storeDirectory struct {
	store recorddomain.Store
}

func NewDirectory(store recorddomain.Store) notificationdomain.Directory {
	return &storeDirectory{store: store}
}

func (d *storeDirectory) Lookup(ctx context.Context, userID string) (notificationdomain.Profile, bool) {
	collection, err := d.store.Get(ctx, userID, profileSet)
	if err != nil {
		return notificationdomain.Profile{}, false
	}

	rec, ok := collection.FindRecord(contactRecordKey)
	if !ok {
		return notificationdomain.Profile{}, false
	}

	return notificationdomain.Profile{
		Email:       rec.String("email"),
		DisplayName: rec.String("display_name"),
	}, true
}

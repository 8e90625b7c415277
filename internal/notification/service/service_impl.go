package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/futautah-hue/balo-website/internal/clock"
	notificationdomain "github.com/futautah-hue/balo-website/internal/notification/domain"
	recorddomain "github.com/futautah-hue/balo-website/internal/recordstore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const notificationsSet = "balo_notifications"

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node

	store recorddomain.Store
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node

	Store recorddomain.Store
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		log:   p.Log.Named("notification.service"),
		clock: p.Clock,
		genID: p.GenID,

		store: p.Store,
	}
}

// List implements domain.Service.
func (s *Service) List(ctx context.Context, userID string) (notificationdomain.ListResponse, error) {
	collection, err := s.store.Get(ctx, userID, notificationsSet)
	if err != nil {
		return notificationdomain.ListResponse{}, err
	}

	resp := notificationdomain.ListResponse{
		Notifications: make([]notificationdomain.Notification, 0, len(collection)),
	}
	for _, rec := range collection {
		note := decodeNotification(rec)
		if !note.Read {
			resp.UnreadCount++
		}
		resp.Notifications = append(resp.Notifications, note)
	}
	return resp, nil
}

// MarkAllRead implements domain.Service. A feed with nothing unread is left
// untouched.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	collection, err := s.store.Get(ctx, userID, notificationsSet)
	if err != nil {
		return err
	}

	changed := false
	for i := range collection {
		if collection[i].Bool("read") {
			continue
		}
		collection[i].Set("read", true)
		changed = true
	}
	if !changed {
		return nil
	}

	return s.store.Put(ctx, userID, notificationsSet, collection)
}

// Delete implements domain.Service. The ID may live in the collection key or
// in an id field; both storage shapes are honored.
func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return notificationdomain.ErrInvalidNotification
	}

	collection, err := s.store.Get(ctx, userID, notificationsSet)
	if err != nil {
		return err
	}

	kept := make(recorddomain.Collection, 0, len(collection))
	removed := false
	for _, rec := range collection {
		id := rec.Key
		if field := rec.String("id"); field != "" {
			id = field
		}
		if id == notificationID {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return notificationdomain.ErrNotificationNotFound
	}

	return s.store.Put(ctx, userID, notificationsSet, kept)
}

// Add implements domain.Service.
func (s *Service) Add(ctx context.Context, userID string, notification notificationdomain.Notification) error {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(notification.Message) == "" {
		return notificationdomain.ErrInvalidNotification
	}

	if notification.ID == "" {
		notification.ID = s.genID.Generate().String()
	}
	if notification.Time.IsZero() {
		notification.Time = s.clock.Now()
	}

	collection, err := s.store.Get(ctx, userID, notificationsSet)
	if err != nil {
		return err
	}

	rec := recorddomain.Record{
		Key: notification.ID,
		Fields: map[string]any{
			"id":      notification.ID,
			"type":    notification.Type,
			"message": notification.Message,
			"time":    notification.Time.Unix(),
			"read":    notification.Read,
		},
	}
	if len(notification.Meta) > 0 {
		rec.Set("meta", notification.Meta)
	}

	return s.store.Put(ctx, userID, notificationsSet, append(collection, rec))
}

func timeFromUnix(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

func decodeNotification(rec recorddomain.Record) notificationdomain.Notification {
	note := notificationdomain.Notification{
		ID:      rec.Key,
		Type:    rec.String("type"),
		Message: rec.String("message"),
		Read:    rec.Bool("read"),
	}
	if id := rec.String("id"); id != "" {
		note.ID = id
	}
	if unix, ok := rec.Int64("time"); ok && unix > 0 {
		note.Time = timeFromUnix(unix)
	}
	if meta, ok := rec.Map("meta"); ok {
		note.Meta = meta
	}
	return note
}

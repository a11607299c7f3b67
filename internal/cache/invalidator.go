package cache

import (
	"context"
	"log/slog"
	"runtime/debug"

	"yatube/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Invalidator purges cached listings after writes and tells other instances
// to do the same over Redis pub/sub.
type Invalidator struct {
	pages      PageCache
	rdb        *redis.Client
	instanceID string
}

// NewInvalidator creates an Invalidator. rdb may be nil for a single instance.
func NewInvalidator(pages PageCache, rdb *redis.Client) *Invalidator {
	return &Invalidator{
		pages:      pages,
		rdb:        rdb,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this process in invalidation messages.
func (i *Invalidator) InstanceID() string {
	return i.instanceID
}

// InvalidateIndex purges the local view of the index and publishes a notice.
func (i *Invalidator) InvalidateIndex(ctx context.Context) error {
	if err := i.pages.PurgeIndex(ctx); err != nil {
		return err
	}
	if i.rdb == nil {
		return nil
	}
	return i.rdb.Publish(ctx, InvalidateChannel, i.instanceID).Err()
}

// Subscribe purges on notices from other instances until ctx is cancelled.
// onPurge, if set, runs after every remote purge.
func (i *Invalidator) Subscribe(ctx context.Context, onPurge func()) error {
	if i.rdb == nil {
		return nil
	}
	sub := i.rdb.Subscribe(ctx, InvalidateChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload == i.instanceID {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("PANIC in cache invalidation subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					if err := i.pages.PurgeIndex(ctx); err != nil {
						middleware.Logger.WarnContext(ctx, "Remote index purge failed", slog.String("error", err.Error()))
					}
					if onPurge != nil {
						onPurge()
					}
				}()
			}
		}
	}()

	return nil
}

package server

import (
	"context"
	"time"

	"ainews/internal/notifications"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated         = "post_created"
	EventPostUpdated         = "post_updated"
	EventPostDeleted         = "post_deleted"
	EventPostReactionUpdated = "post_reaction_updated"
	EventCommentCreated      = "comment_created"
	EventCommentUpdated      = "comment_updated"
	EventCommentDeleted      = "comment_deleted"
)

// publishFeedEvent fans an event out to feed subscribers. It never fails the
// request that triggered it.
func (s *Server) publishFeedEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload["at"] = time.Now().UTC().Format(time.RFC3339Nano)
	// Detached so a cancelled request still delivers its event.
	s.hub.Publish(context.WithoutCancel(ctx), s.notifier, notifications.Event{
		Type:    eventType,
		Payload: payload,
	})
}

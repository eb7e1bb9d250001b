// Package history persists chat transcripts as Redis lists, one list per
// session, with a side hash tracking last activity for session listing.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/udyami-labs/maya/internal/domain"
)

const (
	chatKeyPrefix   = domain.KeyPrefix + "chat:"
	sessionIndexKey = domain.KeyPrefix + "chat_sessions"
)

// store is the consumer interface for transcript persistence (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Repo implements the chat-history contract consumed by the transport layer.
type Repo struct {
	store store
}

// New creates a history repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Append adds one message to the session transcript and bumps the
// session's last-activity timestamp.
func (r *Repo) Append(ctx context.Context, sessionID, role, content string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	msg := domain.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := r.store.RPush(ctx, chatKey(sessionID), data); err != nil {
		return fmt.Errorf("rpush %s: %w", chatKey(sessionID), err)
	}

	index := map[string]string{sessionID: msg.Timestamp.Format(time.RFC3339Nano)}
	if err := r.store.HSet(ctx, sessionIndexKey, index); err != nil {
		return fmt.Errorf("update session index: %w", err)
	}
	return nil
}

// List returns a session's messages in append order.
func (r *Repo) List(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := r.store.LRange(ctx, chatKey(sessionID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", chatKey(sessionID), err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for i, data := range raw {
		var msg domain.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message %d: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Sessions returns known session IDs ordered by latest activity, newest first.
func (r *Repo) Sessions(ctx context.Context) ([]string, error) {
	index, err := r.store.HGetAll(ctx, sessionIndexKey)
	if err != nil {
		return nil, fmt.Errorf("read session index: %w", err)
	}

	ids := make([]string, 0, len(index))
	lastActive := make(map[string]time.Time, len(index))
	for id, raw := range index {
		ids = append(ids, id)
		// Unparseable entries sort as zero time rather than failing the listing.
		ts, _ := time.Parse(time.RFC3339Nano, raw)
		lastActive[id] = ts
	}
	sort.Slice(ids, func(i, j int) bool {
		if !lastActive[ids[i]].Equal(lastActive[ids[j]]) {
			return lastActive[ids[i]].After(lastActive[ids[j]])
		}
		return ids[i] < ids[j]
	})
	return ids, nil
}

func chatKey(sessionID string) string { return chatKeyPrefix + sessionID }

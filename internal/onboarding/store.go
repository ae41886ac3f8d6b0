package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"therapylink_backend/internal/user"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrDraftNotFound = errors.New("onboarding draft not found")

// DraftStore keeps one draft per user. Drafts expire after the store's TTL.
type DraftStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*Draft, error)
	Save(ctx context.Context, d *Draft) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

func draftKey(userID uuid.UUID) string {
	return fmt.Sprintf("onboarding:draft:%s", userID.String())
}

type redisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore stores drafts as JSON. Every save refreshes the TTL.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{client: client, ttl: ttl}
}

func (s *redisDraftStore) Load(ctx context.Context, userID uuid.UUID) (*Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d.Normalize()
	return &d, nil
}

func (s *redisDraftStore) Save(ctx context.Context, d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(d.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *redisDraftStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryDraftStore is a process-local DraftStore. Drafts are stored encoded
// so callers never share memory with the store.
type MemoryDraftStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{
		ttl:     ttl,
		entries: make(map[uuid.UUID]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryDraftStore) Load(_ context.Context, userID uuid.UUID) (*Draft, error) {
	s.mu.Lock()
	entry, ok := s.entries[userID]
	if ok && s.ttl > 0 && !s.now().Before(entry.expiresAt) {
		delete(s.entries, userID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}

	var d Draft
	if err := json.Unmarshal(entry.raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	d.Normalize()
	return &d, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, d *Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[d.UserID] = memoryEntry{raw: raw, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

// DraftLifecycle drops a user's draft when the account is deleted. The draft
// lives outside the database, so it goes only after the user row is gone.
type DraftLifecycle struct {
	store DraftStore
}

var (
	_ user.Lifecycle      = (*DraftLifecycle)(nil)
	_ user.PostDeleteHook = (*DraftLifecycle)(nil)
)

func NewDraftLifecycle(store DraftStore) *DraftLifecycle {
	return &DraftLifecycle{store: store}
}

func (l *DraftLifecycle) OnCreate(context.Context, *gorm.DB, *user.User) error {
	return nil
}

func (l *DraftLifecycle) OnDelete(context.Context, *gorm.DB, *user.User) error {
	return nil
}

func (l *DraftLifecycle) AfterDelete(ctx context.Context, u *user.User) error {
	return l.store.Delete(ctx, u.ID)
}

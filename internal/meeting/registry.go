package meeting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/edoliveri/parley/internal/token"
)

// Strict 24-hour wall-clock time. Single-digit hours ("9:30") and
// out-of-range values ("25:61") are rejected.
var slotTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// maxIDAttempts bounds collision retry during create. With 32^8 ids
// this only trips on a broken randomness source, and then it should
// fail loudly instead of spinning.
const maxIDAttempts = 16

// Registry owns the set of live invitations. All mutation goes through
// it; the relay never touches registry state, the two share only the
// meeting id as room name.
type Registry struct {
	store  Store
	tokens *token.Generator
	ttl    time.Duration

	now         func() time.Time
	onCollision func()
	onSweep     func(removed int)
}

func NewRegistry(store Store, tokens *token.Generator, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetCollisionHook observes id collisions during create.
func (r *Registry) SetCollisionHook(hook func()) {
	r.onCollision = hook
}

// SetSweepHook observes each sweeper pass that removed records.
func (r *Registry) SetSweepHook(hook func(removed int)) {
	r.onSweep = hook
}

func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create mints a fresh id and stores a pending invitation expiring
// after the registry TTL. The store's check-and-insert keeps the id
// unique among live invitations even under concurrent creates.
func (r *Registry) Create(ctx context.Context, contact string) (Meeting, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return Meeting{}, ErrMissingContact
	}

	now := r.now()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := r.tokens.Generate()
		if err != nil {
			return Meeting{}, fmt.Errorf("generate meeting id: %w", err)
		}
		m := Meeting{
			ID:               id,
			RecipientContact: contact,
			Status:           StatusPending,
			CreatedAt:        now,
			ExpiresAt:        now.Add(r.ttl),
		}
		err = r.store.Insert(ctx, m)
		if errors.Is(err, ErrDuplicateID) {
			if r.onCollision != nil {
				r.onCollision()
			}
			continue
		}
		if err != nil {
			return Meeting{}, err
		}
		return m, nil
	}
	return Meeting{}, ErrTokenExhausted
}

// ConfirmSlot records the invitee's chosen time and moves the
// invitation to confirmed. Re-confirming with a different time is
// allowed and simply overwrites the slot.
func (r *Registry) ConfirmSlot(ctx context.Context, id, slotTime string) (Meeting, error) {
	if !slotTimePattern.MatchString(slotTime) {
		return Meeting{}, ErrInvalidSlot
	}
	return r.store.ConfirmSlot(ctx, id, slotTime)
}

func (r *Registry) Get(ctx context.Context, id string) (Meeting, error) {
	return r.store.Get(ctx, id)
}

// Validate checks an invitation link. Expiry is derived from
// ExpiresAt at call time; a confirmed meeting past its window is
// still invalid.
func (r *Registry) Validate(ctx context.Context, id string) (Validation, error) {
	m, err := r.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Validation{Valid: false, Reason: ReasonNotFound}, nil
	}
	if err != nil {
		return Validation{}, err
	}
	if r.now().After(m.ExpiresAt) {
		return Validation{Valid: false, Reason: ReasonExpired}, nil
	}
	return Validation{Valid: true, SlotTime: m.SlotTime}, nil
}

func (r *Registry) LiveCount(ctx context.Context) (int, error) {
	return r.store.LiveCount(ctx, r.now())
}

// StartSweeper periodically deletes records expired for longer than
// retention. Purely a memory bound; validation never depends on it.
func (r *Registry) StartSweeper(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		return
	}
	if retention < 0 {
		retention = 0
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := r.now().Add(-retention)
				removed, err := r.store.RemoveExpired(ctx, cutoff)
				if err != nil {
					log.Printf("meeting sweep failed: %v", err)
					continue
				}
				if removed > 0 && r.onSweep != nil {
					r.onSweep(removed)
				}
			}
		}
	}()
}

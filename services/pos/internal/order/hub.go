package order

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/appetiteclub/apt"
)

// Lister is the read side the hub re-queries on every relevant change.
type Lister interface {
	List(ctx context.Context, f Filter) ([]*Order, error)
}

// Snapshot is the full result of a subscription query at one point in time.
type Snapshot struct {
	Sequence uint64    `json:"sequence"`
	TakenAt  time.Time `json:"taken_at"`
	Orders   []*Order  `json:"orders"`
}

// Hub pushes fresh snapshots to live queries. Subscribers only ever see the
// latest snapshot: a slow reader skips intermediate ones.
type Hub struct {
	lister Lister
	logger apt.Logger
	seq    atomic.Uint64
	nextID atomic.Uint64

	mu   sync.RWMutex
	subs map[uint64]*Subscription
}

func NewHub(lister Lister, logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		lister: lister,
		logger: logger,
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscription is one live query.
type Subscription struct {
	id     uint64
	hub    *Hub
	filter Filter

	mu     sync.Mutex
	closed bool
	ch     chan Snapshot
}

// C delivers snapshots. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Filter() Filter {
	return s.filter
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case old := <-s.ch:
		if old.Sequence > snap.Sequence {
			snap = old
		}
	default:
	}
	s.ch <- snap
}

// Subscribe registers a live query and delivers its initial snapshot. The
// subscription ends when ctx is done or Close is called.
func (h *Hub) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	sub := &Subscription{
		id:     h.nextID.Add(1),
		hub:    h,
		filter: f,
		ch:     make(chan Snapshot, 1),
	}

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()

	if err := h.refresh(ctx, sub); err != nil {
		sub.Close()
		return nil, err
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Notify re-runs every query whose filter matched the order before or after
// the change.
func (h *Hub) Notify(ctx context.Context, change Change) {
	for _, sub := range h.snapshotSubs() {
		if !sub.filter.Matches(change.Before) && !sub.filter.Matches(change.After) {
			continue
		}
		if err := h.refresh(ctx, sub); err != nil {
			h.logger.Error("cannot refresh live query", "subscription", sub.id, "error", err)
		}
	}
}

// RefreshAll re-runs every query. Used when changes arrive from another
// instance and their prior state is unknown.
func (h *Hub) RefreshAll(ctx context.Context) {
	for _, sub := range h.snapshotSubs() {
		if err := h.refresh(ctx, sub); err != nil {
			h.logger.Error("cannot refresh live query", "subscription", sub.id, "error", err)
		}
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) refresh(ctx context.Context, sub *Subscription) error {
	seq := h.seq.Add(1)
	orders, err := h.lister.List(ctx, sub.filter)
	if err != nil {
		return fmt.Errorf("cannot query orders: %w", err)
	}

	clones := make([]*Order, 0, len(orders))
	for _, o := range orders {
		clones = append(clones, o.Clone())
	}
	sub.deliver(Snapshot{Sequence: seq, TakenAt: time.Now(), Orders: clones})
	return nil
}

func (h *Hub) snapshotSubs() []*Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

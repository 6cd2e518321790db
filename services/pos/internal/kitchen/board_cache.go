package kitchen

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/payper/services/pos/internal/order"
	"github.com/google/uuid"
)

// Source delivers order snapshots for a filter, as order.Hub does.
type Source interface {
	Subscribe(ctx context.Context, f order.Filter) (*order.Subscription, error)
}

// TableNames resolves table ids to display names.
type TableNames interface {
	TableNames(ctx context.Context) (map[uuid.UUID]string, error)
}

// Board is the kitchen display at one point in time.
type Board struct {
	Sequence  uint64         `json:"sequence"`
	UpdatedAt time.Time      `json:"updated_at"`
	Cards     []Card         `json:"cards"`
	Counts    map[string]int `json:"counts"`
}

// BoardCache keeps the current kitchen board, rebuilt from every order
// snapshot, and fans it out to watchers.
type BoardCache struct {
	mu       sync.RWMutex
	board    Board
	dishes   []Dish
	watchers map[string]chan Board

	source Source
	tables TableNames
	logger apt.Logger

	sub *order.Subscription
}

func NewBoardCache(source Source, tables TableNames, logger apt.Logger) *BoardCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &BoardCache{
		board:    Board{Cards: []Card{}, Counts: CountByStatus(nil)},
		watchers: make(map[string]chan Board),
		source:   source,
		tables:   tables,
		logger:   logger,
	}
}

// Start subscribes to kitchen orders and warms the cache with the first
// snapshot before returning.
func (c *BoardCache) Start(ctx context.Context) error {
	if c.source == nil {
		return errors.New("board source not configured")
	}
	sub, err := c.source.Subscribe(ctx, Filter())
	if err != nil {
		return err
	}
	c.sub = sub

	select {
	case snap, ok := <-sub.C():
		if ok {
			c.apply(ctx, snap)
		}
	case <-ctx.Done():
		sub.Close()
		return ctx.Err()
	}

	go c.run(ctx, sub)
	c.log().Info("kitchen board cache warmed", "cards", len(c.Board().Cards))
	return nil
}

func (c *BoardCache) Stop(ctx context.Context) error {
	if c.sub != nil {
		c.sub.Close()
	}
	return nil
}

func (c *BoardCache) run(ctx context.Context, sub *order.Subscription) {
	defer c.closeWatchers()
	for snap := range sub.C() {
		c.apply(ctx, snap)
	}
	c.log().Info("kitchen board subscription ended")
}

func (c *BoardCache) apply(ctx context.Context, snap order.Snapshot) {
	names := c.tableNames(ctx)
	cards := BuildBoard(snap.Orders, names)
	board := Board{
		Sequence:  snap.Sequence,
		UpdatedAt: snap.TakenAt,
		Cards:     cards,
		Counts:    CountByStatus(cards),
	}
	dishes := BuildDishes(cards)

	c.mu.Lock()
	if board.Sequence < c.board.Sequence {
		c.mu.Unlock()
		return
	}
	c.board = board
	c.dishes = dishes
	for _, ch := range c.watchers {
		push(ch, board)
	}
	c.mu.Unlock()

	c.log().Debug("kitchen board updated", "sequence", board.Sequence, "cards", len(cards))
}

func (c *BoardCache) tableNames(ctx context.Context) map[uuid.UUID]string {
	if c.tables == nil {
		return nil
	}
	names, err := c.tables.TableNames(ctx)
	if err != nil {
		c.log().Error("cannot load table names", "error", err)
		return nil
	}
	return names
}

// Board returns the current board.
func (c *BoardCache) Board() Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.board
}

// Dishes returns the consolidated per-dish view of the current board.
func (c *BoardCache) Dishes() []Dish {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dishes
}

// Watch registers a watcher that receives every new board. Slow watchers
// only ever see the latest one.
func (c *BoardCache) Watch(id string) <-chan Board {
	ch := make(chan Board, 1)
	c.mu.Lock()
	c.watchers[id] = ch
	c.mu.Unlock()
	return ch
}

func (c *BoardCache) Unwatch(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.watchers[id]; ok {
		delete(c.watchers, id)
		close(ch)
	}
}

func (c *BoardCache) closeWatchers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
}

// push never blocks, it replaces an unread board with the newer one.
func push(ch chan Board, board Board) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- board:
	default:
	}
}

func (c *BoardCache) log() apt.Logger {
	return c.logger.With("component", "BoardCache")
}

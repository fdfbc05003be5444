package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// State is the coordinator's position in the load lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// History abstracts the embedding shell's location handling. Replace updates
// the displayed location without creating a new history entry; the shell is
// expected to report its own resulting change notification back through
// Coordinator.HandleHistoryChange, including the echo of a Replace call.
type History interface {
	Replace(signature string)
}

// NoopHistory is for embeddings without a location bar.
type NoopHistory struct{}

func (NoopHistory) Replace(string) {}

// Snapshot is an immutable view of coordinator state, safe to hand to
// subscribers outside the lock.
type Snapshot struct {
	State        State
	Signature    string
	Record       *TransactionRecord
	Err          error
	LoadingSince time.Time
}

// Coordinator keeps exactly one current signature consistent across three
// independent change sources: the initial route parameter, programmatic
// selection from a visualization, and the shell's back/forward navigation.
// At most one authoritative fetch is in flight; a newer navigation cancels
// the older fetch and a generation token keeps a late result from being
// applied after it was superseded.
type Coordinator struct {
	fetcher *Fetcher
	cache   *Cache
	history History
	logger  *slog.Logger

	// OnChange receives a snapshot after every state transition.
	OnChange func(Snapshot)
	// OnTitle receives a truncated-signature title after each successful load.
	OnTitle func(title string)
	// OnScrollReset fires alongside OnTitle so the shell can scroll to top.
	OnScrollReset func()

	// PrefetchAccounts is how many of a loaded record's accounts get a
	// best-effort cache-warming lookup. PrefetchLimit is records per account.
	PrefetchAccounts int
	PrefetchLimit    int

	mu            sync.Mutex
	sessionCtx    context.Context
	state         State
	current       string
	record        *TransactionRecord
	err           error
	loadingSince  time.Time
	gen           uint64
	cancel        context.CancelCauseFunc
	navInProgress bool
}

// NewCoordinator wires a coordinator with a fresh session cache.
// A nil history or logger falls back to no-ops.
func NewCoordinator(fetcher *Fetcher, history History, logger *slog.Logger) *Coordinator {
	if history == nil {
		history = NoopHistory{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Coordinator{
		fetcher:          fetcher,
		cache:            NewCache(),
		history:          history,
		logger:           logger,
		PrefetchAccounts: 4,
		PrefetchLimit:    1,
		sessionCtx:       context.Background(),
	}
}

// Cache exposes the session cache, mainly for embeddings that want to seed it.
func (c *Coordinator) Cache() *Cache {
	return c.cache
}

// Start adopts the route-provided signature unconditionally. The context
// bounds the whole session: cancelling it stops in-flight and prefetch work.
func (c *Coordinator) Start(ctx context.Context, signature string) {
	c.mu.Lock()
	c.sessionCtx = ctx
	c.navInProgress = false
	c.mu.Unlock()
	c.adopt(signature, false)
}

// SelectTransaction handles programmatic navigation, e.g. a click on a node
// in the transaction graph. It replaces the shell location (no new history
// entry), cancels any in-flight fetch, and loads the new signature. The
// shell's own change notification for the Replace call arrives later as an
// echo and is suppressed in HandleHistoryChange.
func (c *Coordinator) SelectTransaction(signature string) {
	c.mu.Lock()
	if signature == c.current && c.state != StateFailed && c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	c.navInProgress = true
	c.mu.Unlock()

	// Outside the lock: some shells deliver the echo synchronously.
	c.history.Replace(signature)
	c.adopt(signature, false)
}

// HandleHistoryChange handles the shell's back/forward notification. If a
// programmatic navigation is in progress the event is the echo of our own
// Replace call: consume the flag and ignore it, the signature is already
// being loaded. Otherwise the new signature is adopted like any external
// navigation.
func (c *Coordinator) HandleHistoryChange(signature string) {
	c.mu.Lock()
	if c.navInProgress {
		c.navInProgress = false
		c.mu.Unlock()
		c.logger.Debug("ignoring history echo", "signature", truncateSignature(signature))
		return
	}
	if signature == c.current {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.adopt(signature, false)
}

// HandleRouteChange handles an externally driven route change (typed URL,
// followed link). Adopted only when it differs from the tracked signature
// and no programmatic navigation is in flight.
func (c *Coordinator) HandleRouteChange(signature string) {
	c.mu.Lock()
	if c.navInProgress || signature == c.current {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.adopt(signature, false)
}

// Reload re-runs the full flow for the current signature, bypassing the
// cache. This backs the view's manual retry action.
func (c *Coordinator) Reload() {
	c.mu.Lock()
	signature := c.current
	c.mu.Unlock()
	if signature == "" {
		return
	}
	c.adopt(signature, true)
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// adopt makes signature current. It supersedes any in-flight fetch, then
// either serves the cache synchronously or transitions to Loading and
// fetches in the background.
func (c *Coordinator) adopt(signature string, bypassCache bool) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel(ErrSuperseded)
		c.cancel = nil
	}
	c.current = signature

	if !bypassCache {
		if record, ok := c.cache.Get(signature); ok {
			c.state = StateSuccess
			c.record = record
			c.err = nil
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.logger.Debug("cache hit", "signature", truncateSignature(signature))
			c.applyLoadSideEffects(signature)
			c.emit(snap)
			return
		}
	}

	c.state = StateLoading
	c.record = nil
	c.err = nil
	c.loadingSince = time.Now()
	fetchCtx, cancel := context.WithCancelCause(c.sessionCtx)
	c.cancel = cancel
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	go c.load(fetchCtx, gen, signature)
}

// load runs one fetch and applies the result only if its generation is
// still current. Rapid repeated navigations therefore can never resurrect
// a stale response, even if the cancellation raced the response.
func (c *Coordinator) load(ctx context.Context, gen uint64, signature string) {
	record, err := c.fetcher.Fetch(ctx, signature)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded fetch result", "signature", truncateSignature(signature))
		return
	}
	c.cancel = nil

	if err != nil {
		if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
			c.mu.Unlock()
			return
		}
		c.state = StateFailed
		c.err = err
		c.record = nil
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.logger.Warn("transaction load failed",
			"signature", truncateSignature(signature),
			"kind", KindOf(err).String(),
			"error", err,
		)
		c.emit(snap)
		return
	}

	c.cache.Put(signature, record)
	c.state = StateSuccess
	c.record = record
	c.err = nil
	snap := c.snapshotLocked()
	session := c.sessionCtx
	c.mu.Unlock()

	c.applyLoadSideEffects(signature)
	c.emit(snap)
	go c.prefetchRelated(session, record)
}

// prefetchRelated warms the cache with recent transactions for the first
// few accounts of a just-loaded record. Best effort: low concurrency,
// failures are logged at debug and otherwise discarded.
func (c *Coordinator) prefetchRelated(ctx context.Context, record *TransactionRecord) {
	accounts := record.Details.Accounts
	n := c.PrefetchAccounts
	if n > len(accounts) {
		n = len(accounts)
	}
	if n <= 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(2)
	for _, account := range accounts[:n] {
		pubkey := account.Pubkey
		g.Go(func() error {
			records, err := c.fetcher.RecentForAccount(ctx, pubkey, c.PrefetchLimit)
			if err != nil {
				c.logger.Debug("prefetch failed", "account", pubkey, "error", err)
				return nil
			}
			for _, r := range records {
				c.cache.Put(r.Signature, r)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		State:        c.state,
		Signature:    c.current,
		Record:       c.record,
		Err:          c.err,
		LoadingSince: c.loadingSince,
	}
}

func (c *Coordinator) emit(snap Snapshot) {
	if c.OnChange != nil {
		c.OnChange(snap)
	}
}

func (c *Coordinator) applyLoadSideEffects(signature string) {
	if c.OnTitle != nil {
		c.OnTitle(fmt.Sprintf("Transaction %s | sigview", truncateSignature(signature)))
	}
	if c.OnScrollReset != nil {
		c.OnScrollReset()
	}
}

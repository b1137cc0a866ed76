package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	historyApp "github.com/fd1az/wallet-dashboard/business/history/app"
	"github.com/fd1az/wallet-dashboard/business/session/domain"
	walletApp "github.com/fd1az/wallet-dashboard/business/wallet/app"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/logger"
)

const meterName = "github.com/fd1az/wallet-dashboard/business/session/app"

// Store owns one Session and is the only code that mutates it.
type Store struct {
	bridge  walletApp.Bridge
	fetcher historyApp.HistoryFetcher
	prefs   PreferenceStore
	logger  logger.LoggerInterface

	mu        sync.Mutex
	session   domain.Session
	listeners map[int]Listener
	nextID    int

	persistMu sync.Mutex
	effects   sync.WaitGroup
	// done ends with Close and cancels in-flight effects.
	done     context.Context
	shutdown context.CancelFunc

	staleDropped metric.Int64Counter
}

// NewStore creates a store whose selected chain is restored from prefs.
// An unreadable or unknown stored chain falls back to the default.
func NewStore(ctx context.Context, bridge walletApp.Bridge, fetcher historyApp.HistoryFetcher, prefs PreferenceStore, log logger.LoggerInterface) (*Store, error) {
	s := &Store{
		bridge:    bridge,
		fetcher:   fetcher,
		prefs:     prefs,
		logger:    log,
		listeners: make(map[int]Listener),
	}
	s.done, s.shutdown = context.WithCancel(context.Background())

	var err error
	s.staleDropped, err = otel.Meter(meterName).Int64Counter(
		"session_stale_results_total",
		metric.WithDescription("Fetch completions dropped because a newer request superseded them"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return nil, err
	}

	s.session = domain.New(uuid.NewString(), s.loadChain(ctx))
	s.logger.Info(ctx, "session created",
		"session_id", s.session.ID,
		"chain", s.session.SelectedChain.String())
	return s, nil
}

func (s *Store) loadChain(ctx context.Context) chain.Chain {
	stored, err := s.prefs.LoadChain(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to load chain preference", apperror.LogAttrs(err)...)
		return chain.Default()
	}
	if stored == "" {
		return chain.Default()
	}
	c, err := chain.Parse(string(stored))
	if err != nil {
		s.logger.Warn(ctx, "ignoring unknown stored chain", "chain", string(stored))
		return chain.Default()
	}
	return c
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Connect prompts the wallet for accounts. Failures end up in Session.Error.
func (s *Store) Connect(ctx context.Context) {
	s.dispatch(ctx, domain.ConnectStarted{})

	accounts, err := s.bridge.RequestAccounts(ctx)
	if err != nil {
		s.logger.Warn(ctx, "wallet connect failed", apperror.LogAttrs(err)...)
		s.dispatch(ctx, domain.ConnectFailed{
			Message: apperror.UserMessage(err, domain.MsgConnectionFailed),
		})
		return
	}
	s.dispatch(ctx, domain.ConnectSucceeded{Accounts: accounts})
}

// CheckConnection silently restores an existing authorization. Failures are
// only logged.
func (s *Store) CheckConnection(ctx context.Context) {
	accounts, err := s.bridge.Accounts(ctx)
	if err != nil {
		s.logger.Debug(ctx, "failed to restore connection", apperror.LogAttrs(err)...)
		return
	}
	s.dispatch(ctx, domain.RestoreSucceeded{Accounts: accounts})
}

// Disconnect forgets the connected account.
func (s *Store) Disconnect(ctx context.Context) {
	s.dispatch(ctx, domain.Disconnected{})
}

// SetChain selects c, persists it and refetches when connected.
func (s *Store) SetChain(ctx context.Context, c chain.Chain) {
	s.dispatch(ctx, domain.ChainSelected{Chain: c})
}

// FetchHistory refreshes the transaction list for the connected account.
func (s *Store) FetchHistory(ctx context.Context) {
	s.dispatch(ctx, domain.FetchRequested{})
}

// Watch feeds wallet account changes into the session until ctx ends or
// the bridge stops the stream.
func (s *Store) Watch(ctx context.Context) error {
	ch, err := s.bridge.WatchAccounts(ctx)
	if err != nil {
		return err
	}
	for accounts := range ch {
		s.logger.Debug(ctx, "wallet accounts changed", "accounts", len(accounts))
		s.dispatch(ctx, domain.AccountsChanged{Accounts: accounts})
	}
	return nil
}

// Wait blocks until every effect started so far has finished.
func (s *Store) Wait() {
	s.effects.Wait()
}

// Close cancels in-flight effects and waits for them to return.
func (s *Store) Close() {
	s.shutdown()
	s.effects.Wait()
}

// LoadTheme returns the stored theme, or "" when none is stored or the
// stored value is unusable.
func (s *Store) LoadTheme(ctx context.Context) domain.Theme {
	t, err := s.prefs.LoadTheme(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to load theme preference", apperror.LogAttrs(err)...)
		return ""
	}
	if !t.Valid() {
		return ""
	}
	return t
}

// SaveTheme persists t. Failures are only logged.
func (s *Store) SaveTheme(ctx context.Context, t domain.Theme) {
	if err := s.prefs.SaveTheme(ctx, t); err != nil {
		s.logger.Warn(ctx, "failed to save theme preference", apperror.LogAttrs(err)...)
	}
}

// dispatch applies ev atomically, notifies listeners outside the lock and
// starts the resulting effects.
func (s *Store) dispatch(ctx context.Context, ev domain.Event) {
	s.mu.Lock()
	before := s.session
	next, effects := domain.Reduce(s.session, ev)
	next.Rev = before.Rev + 1
	s.session = next
	snapshot := next.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if done, ok := ev.(domain.FetchSucceeded); ok && next.AppliedSeq != done.Request.Seq {
		s.dropped(ctx, done.Request)
	}
	if failed, ok := ev.(domain.FetchFailed); ok && next.AppliedSeq != failed.Request.Seq {
		s.dropped(ctx, failed.Request)
	}

	for _, l := range listeners {
		l(snapshot)
	}

	for _, eff := range effects {
		s.run(ctx, eff)
	}
}

func (s *Store) dropped(ctx context.Context, req domain.FetchRequest) {
	s.staleDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("chain", req.Chain.String())))
	s.logger.Debug(ctx, "dropping stale fetch result",
		"seq", req.Seq,
		"chain", req.Chain.String())
}

// run executes an effect on a tracked goroutine. Effects outlive the
// action that caused them and are cancelled only by Close.
func (s *Store) run(ctx context.Context, eff domain.Effect) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.done, cancel)

	s.effects.Add(1)
	go func() {
		defer s.effects.Done()
		defer cancel()
		defer stop()

		switch e := eff.(type) {
		case domain.FetchHistory:
			s.fetch(ctx, e.Request)
		case domain.PersistChain:
			s.persistChain(ctx)
		}
	}()
}

func (s *Store) fetch(ctx context.Context, req domain.FetchRequest) {
	txs, err := s.fetcher.Fetch(ctx, req.Address, req.Chain)
	if err != nil {
		s.dispatch(ctx, domain.FetchFailed{Request: req})
		return
	}
	s.dispatch(ctx, domain.FetchSucceeded{Request: req, Transactions: txs})
}

// persistChain writes the currently selected chain, so overlapping saves
// always leave the latest selection stored.
func (s *Store) persistChain(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	c := s.session.SelectedChain
	s.mu.Unlock()

	if err := s.prefs.SaveChain(ctx, c); err != nil {
		s.logger.Warn(ctx, "failed to persist chain preference", apperror.LogAttrs(err)...)
	}
}

// Package watchlist keeps the set of tickers refreshed by the scheduler.
package watchlist

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/format"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

var (
	ErrAlreadyWatched = errors.New("ticker already on watchlist")
	ErrNotWatched     = errors.New("ticker not on watchlist")
)

// Manager handles watchlist mutations with concurrency safety.
// Every mutation is written back to disk.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchlistState
	filePath string
	log      zerolog.Logger
	now      func() time.Time
}

// NewManager loads the state file. When it holds no entries the initial
// tickers are added for market.
func NewManager(filePath string, initial []string, market model.Market) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	m := &Manager{state: state, filePath: filePath, log: logger.Component("watchlist"), now: time.Now}
	if len(state.Entries) == 0 {
		for _, t := range initial {
			sym, err := format.ValidateTicker(t)
			if err != nil {
				m.log.Warn().Str("ticker", t).Msg("skipping invalid initial ticker")
				continue
			}
			if m.index(sym) < 0 {
				state.Entries = append(state.Entries, model.WatchEntry{Ticker: sym, Market: market, AddedAt: m.now()})
			}
		}
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) index(ticker string) int {
	for i, e := range m.state.Entries {
		if e.Ticker == ticker {
			return i
		}
	}
	return -1
}

// Add validates and appends a ticker.
func (m *Manager) Add(ticker string, market model.Market) (model.WatchEntry, error) {
	sym, err := format.ValidateTicker(ticker)
	if err != nil {
		return model.WatchEntry{}, err
	}
	if market == "" {
		market = model.MarketInternational
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index(sym) >= 0 {
		return model.WatchEntry{}, fmt.Errorf("%w: %s", ErrAlreadyWatched, sym)
	}
	e := model.WatchEntry{Ticker: sym, Market: market, AddedAt: m.now()}
	entries := make([]model.WatchEntry, 0, len(m.state.Entries)+1)
	entries = append(entries, m.state.Entries...)
	if err := m.commit(append(entries, e)); err != nil {
		return model.WatchEntry{}, err
	}
	return e, nil
}

// Remove deletes a ticker.
func (m *Manager) Remove(ticker string) error {
	sym, err := format.ValidateTicker(ticker)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(sym)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotWatched, sym)
	}
	entries := make([]model.WatchEntry, 0, len(m.state.Entries)-1)
	entries = append(entries, m.state.Entries[:i]...)
	entries = append(entries, m.state.Entries[i+1:]...)
	return m.commit(entries)
}

// List returns a copy of the entries in insertion order.
func (m *Manager) List() []model.WatchEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.WatchEntry, len(m.state.Entries))
	copy(out, m.state.Entries)
	return out
}

// Len returns the number of watched tickers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Entries)
}

// UpdateSignal stores the latest evaluation for ticker. changed is true only
// when a previous signal existed and differs from the new one.
func (m *Manager) UpdateSignal(ticker string, report *model.TechnicalReport, bias model.Bias) (previous model.Action, changed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(ticker)
	if i < 0 {
		return "", false, fmt.Errorf("%w: %s", ErrNotWatched, ticker)
	}

	e := &m.state.Entries[i]
	previous = e.LastSignal
	changed = previous != "" && previous != report.Overall

	e.LastSignal = report.Overall
	e.LastClose = report.Close
	e.LastBias = bias
	e.RefreshedAt = m.now()

	if err := m.save(); err != nil {
		m.log.Error().Err(err).Msg("failed to save watchlist state")
	}
	return previous, changed, nil
}

// commit writes entries to disk and adopts them only once the write succeeded.
func (m *Manager) commit(entries []model.WatchEntry) error {
	next := *m.state
	next.Entries = entries
	if err := SaveState(m.filePath, &next); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	*m.state = next
	return nil
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

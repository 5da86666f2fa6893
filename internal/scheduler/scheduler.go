// Package scheduler runs the watchlist jobs and serves the bot commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockLens/internal/analyzer"
	"StockLens/internal/logger"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
	"StockLens/internal/watchlist"
)

// Sender delivers notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Broadcaster pushes watchlist updates to live clients.
type Broadcaster interface {
	Broadcast(v any)
}

const sendRetries = 3

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  *analyzer.Analyzer
	Watchlist *watchlist.Manager
	Notifier  Sender      // optional
	Hub       Broadcaster // optional
	Ctx       context.Context
	Period    string

	log zerolog.Logger
	now func() time.Time
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ log zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.log.Error().Err(err).Fields(kv).Msg(msg)
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(ctx context.Context, a *analyzer.Analyzer, wl *watchlist.Manager, sender Sender, hub Broadcaster) *Scheduler {
	l := logger.Component("scheduler")
	cl := cronLogger{log: l}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Analyzer:  a,
		Watchlist: wl,
		Notifier:  sender,
		Hub:       hub,
		Ctx:       ctx,
		Period:    model.DefaultPeriod,
		log:       l,
		now:       time.Now,
	}
}

// RegisterAll registers the refresh, news and digest jobs.
func (s *Scheduler) RegisterAll(refreshCron, newsCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(newsCron, s.newsTask); err != nil {
		return fmt.Errorf("register news task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	entries := s.Watchlist.List()
	s.Analyzer.Metrics.SetWatchlistSize(len(entries))
	s.log.Info().Int("tickers", len(entries)).Msg("running watchlist refresh")

	for _, e := range entries {
		if s.Ctx.Err() != nil {
			return
		}
		if _, err := s.refreshOne(e); err != nil {
			s.log.Error().Err(err).Str("ticker", e.Ticker).Msg("refresh failed")
		}
	}
}

func (s *Scheduler) refreshOne(e model.WatchEntry) (*analyzer.Dashboard, error) {
	d, err := s.Analyzer.Analyze(s.Ctx, e.Ticker, e.Market, s.Period)
	if err != nil {
		return nil, err
	}
	prev, changed, err := s.Watchlist.UpdateSignal(e.Ticker, d.Report, d.Score.Overall)
	if err != nil {
		return nil, err
	}

	at := s.now()
	if s.Hub != nil {
		s.Hub.Broadcast(model.WatchUpdate{
			Ticker:   e.Ticker,
			Signal:   d.Report.Overall,
			Previous: prev,
			Changed:  changed,
			Bias:     d.Score.Overall,
			Close:    d.Report.Close,
			At:       at,
		})
	}
	if changed {
		s.log.Info().Str("ticker", e.Ticker).Str("from", string(prev)).Str("to", string(d.Report.Overall)).Msg("signal changed")
		s.trySend(notifier.FormatSignalChange(model.SignalChange{
			Ticker:   e.Ticker,
			Previous: prev,
			Current:  d.Report.Overall,
			Close:    d.Report.Close,
			At:       at,
		}, d.Report))
	}
	return d, nil
}

// newsTask warms the news cache for every watched ticker.
func (s *Scheduler) newsTask() {
	for _, e := range s.Watchlist.List() {
		if s.Ctx.Err() != nil {
			return
		}
		if _, err := s.Analyzer.News(s.Ctx, "", e.Ticker); err != nil {
			s.log.Warn().Err(err).Str("ticker", e.Ticker).Msg("news refresh failed")
		}
	}
}

func (s *Scheduler) digestTask() {
	s.log.Info().Msg("sending watchlist digest")
	s.trySend(notifier.FormatWatchlist(s.Watchlist.List(), s.now()))
}

var usage = map[string]string{
	"/analyze": "/analyze TICKER",
	"/news":    "/news TICKER",
	"/watch":   "/watch TICKER",
	"/unwatch": "/unwatch TICKER",
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/analyze@StockLensBot AAPL" in group chats.
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	if u, ok := usage[name]; ok && arg == "" {
		return "Usage: " + u
	}

	switch name {
	case "/analyze":
		d, err := s.Analyzer.Analyze(ctx, arg, model.MarketInternational, s.Period)
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatTechnicalSummary(d.Report, d.Score)

	case "/news":
		res, err := s.Analyzer.News(ctx, "", arg)
		if err != nil {
			return errorReply(err)
		}
		return notifier.FormatNewsDigest(res)

	case "/watch":
		e, err := s.Watchlist.Add(arg, model.MarketInternational)
		if err != nil {
			return errorReply(err)
		}
		s.Analyzer.Metrics.SetWatchlistSize(s.Watchlist.Len())
		return fmt.Sprintf("✅ %s added to watchlist", e.Ticker)

	case "/unwatch":
		if err := s.Watchlist.Remove(arg); err != nil {
			if errors.Is(err, watchlist.ErrNotWatched) {
				return fmt.Sprintf("%s is not on the watchlist", html.EscapeString(strings.ToUpper(arg)))
			}
			return errorReply(err)
		}
		s.Analyzer.Metrics.SetWatchlistSize(s.Watchlist.Len())
		return fmt.Sprintf("🗑 %s removed from watchlist", html.EscapeString(strings.ToUpper(arg)))

	case "/watchlist":
		return notifier.FormatWatchlist(s.Watchlist.List(), s.now())

	default:
		return notifier.FormatHelp()
	}
}

// errorReply escapes err for Telegram HTML; error text can echo user input.
func errorReply(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries)
	s.Analyzer.Metrics.ObserveNotification(err)
	if err != nil {
		s.log.Error().Err(err).Msg("send notification failed")
	}
}

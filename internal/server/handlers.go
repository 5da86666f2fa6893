package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"StockLens/internal/analyzer"
	"StockLens/internal/collector"
	"StockLens/internal/export"
	"StockLens/internal/format"
	"StockLens/internal/fundamentals"
	"StockLens/internal/model"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
	"StockLens/internal/watchlist"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // response already committed
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorHint(w, status, msg, "")
}

// writeErrorHint adds a user-facing hint next to the raw error when there is one.
func writeErrorHint(w http.ResponseWriter, status int, msg, hint string) {
	body := map[string]string{"error": msg}
	if hint != "" {
		body["hint"] = hint
	}
	writeJSON(w, status, body)
}

// hintFor picks the format.ErrorMessages entry matching err.
func hintFor(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, format.ErrInvalidTicker):
		return format.ErrorMessages["invalid_ticker"]
	case errors.Is(err, collector.ErrNoData):
		return format.ErrorMessages["no_data"]
	case errors.As(err, &netErr):
		return format.ErrorMessages["network_error"]
	case statusFor(err) == http.StatusBadGateway:
		return format.ErrorMessages["api_error"]
	}
	return ""
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is treated as an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, format.ErrInvalidTicker),
		errors.Is(err, news.ErrUnknownSource),
		errors.Is(err, news.ErrMissingKey),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrNoData),
		errors.Is(err, fundamentals.ErrNoFundamentals),
		errors.Is(err, watchlist.ErrNotWatched):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrAlreadyWatched):
		return http.StatusConflict
	case errors.Is(err, analyzer.ErrFundamentalsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeErrorHint(w, status, err.Error(), hintFor(err))
}

var errBadRequest = errors.New("bad request")

func (s *Server) market(r *http.Request) (model.Market, error) {
	switch m := model.Market(strings.ToLower(r.URL.Query().Get("market"))); m {
	case "":
		return s.opts.DefaultMarket, nil
	case model.MarketInternational, model.MarketIndian:
		return m, nil
	default:
		return "", fmt.Errorf("%w: market must be international or indian", errBadRequest)
	}
}

func (s *Server) period(r *http.Request) (string, error) {
	p := r.URL.Query().Get("period")
	if p == "" {
		return s.opts.DefaultPeriod, nil
	}
	if !model.ValidPeriod(p) {
		return "", fmt.Errorf("%w: period must be one of %s", errBadRequest, strings.Join(model.Periods, ", "))
	}
	return p, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "ok",
		"version":              s.opts.Version,
		"uptime":               time.Since(s.started).Round(time.Second).String(),
		"ws_clients":           s.hub.ClientCount(),
		"watchlist":            s.watchlist.Len(),
		"news_sources":         s.analyzer.NewsSources(),
		"fundamentals_enabled": s.analyzer.FundamentalsEnabled(),
	})
}

func (s *Server) handleIndianSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, collector.IndianSuggestions)
}

// dashboard runs the analysis shared by the dashboard and export routes.
func (s *Server) dashboard(r *http.Request) (*analyzer.Dashboard, error) {
	market, err := s.market(r)
	if err != nil {
		return nil, err
	}
	period, err := s.period(r)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(r.Context(), chi.URLParam(r, "ticker"), market, period)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if r.URL.Query().Get("rows") == "false" {
		d.Rows = nil
	}
	writeJSON(w, http.StatusOK, d)
}

func writeCSV(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTechnicalExport(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteTechnicalCSV(&buf, d.Series.Bars, d.Indicators); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeCSV(w, export.TechnicalFilename(d.Series.Last().Time), &buf)
}

func (s *Server) handleFundamentals(w http.ResponseWriter, r *http.Request) {
	f, rep, err := s.analyzer.Fundamentals(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": f, "report": rep})
}

func (s *Server) handleFundamentalsExport(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.analyzer.Fundamentals(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteFundamentalsCSV(&buf, f); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeCSV(w, export.FundamentalsFilename(f.Symbol), &buf)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.News(r.Context(), r.URL.Query().Get("source"), chi.URLParam(r, "ticker"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol, err := format.ValidateTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	since := time.Now().UTC().AddDate(-1, 0, 0)
	if v := r.URL.Query().Get("since"); v != "" {
		if since, err = time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
	}

	reports, err := s.analyzer.Recorder.RecentReports(symbol, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []recorder.ReportSummary{}
	}
	prices, err := s.analyzer.Recorder.LoadPrices(symbol, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if prices == nil {
		prices = []model.OHLCV{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "reports": reports, "prices": prices})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	market, err := s.market(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "only .csv files are accepted")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		symbol = strings.ToUpper(strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename)))
	}

	res, err := s.analyzer.Upload(r.Context(), file, symbol, market)
	if err != nil {
		// Upload failures are problems with the file itself.
		s.log.Warn().Err(err).Str("file", header.Filename).Msg("upload rejected")
		writeErrorHint(w, http.StatusBadRequest, err.Error(), format.ErrorMessages["file_error"])
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.watchlist.List()})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	market, err := s.market(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ticker == "" {
		var body struct {
			Ticker string       `json:"ticker"`
			Market model.Market `json:"market"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		ticker = body.Ticker
		if body.Market != "" {
			market = body.Market
		}
	}
	if market != model.MarketInternational && market != model.MarketIndian {
		writeError(w, http.StatusBadRequest, "market must be international or indian")
		return
	}

	e, err := s.watchlist.Add(ticker, market)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SetWatchlistSize(s.watchlist.Len())
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUnwatch(w http.ResponseWriter, r *http.Request) {
	if err := s.watchlist.Remove(chi.URLParam(r, "ticker")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.SetWatchlistSize(s.watchlist.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWS(w, r, s.watchlist.List())
}

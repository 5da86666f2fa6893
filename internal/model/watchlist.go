package model

import "time"

// WatchEntry tracks the last evaluation of one watched ticker.
type WatchEntry struct {
	Ticker      string    `json:"ticker"`
	Market      Market    `json:"market"`
	LastSignal  Action    `json:"last_signal,omitempty"`
	LastClose   float64   `json:"last_close,omitempty"`
	LastBias    Bias      `json:"last_bias,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// WatchlistState is the persisted watchlist.
type WatchlistState struct {
	Entries   []WatchEntry `json:"entries"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SignalChange is emitted when a refresh flips a ticker's overall signal.
type SignalChange struct {
	Ticker   string    `json:"ticker"`
	Previous Action    `json:"previous"`
	Current  Action    `json:"current"`
	Close    float64   `json:"close"`
	At       time.Time `json:"at"`
}

// WatchUpdate is pushed to WebSocket clients after each refresh of a ticker.
type WatchUpdate struct {
	Ticker   string    `json:"ticker"`
	Signal   Action    `json:"signal"`
	Previous Action    `json:"previous,omitempty"`
	Changed  bool      `json:"changed"`
	Bias     Bias      `json:"bias"`
	Close    float64   `json:"close"`
	At       time.Time `json:"at"`
}

package model

import "time"

// Quote represents a live quote for a single instrument. Quotes are
// ephemeral: they are produced fresh each fetch cycle and never persisted.
type Quote struct {
	Ticker         string    `json:"ticker"`
	CurrentPrice   float64   `json:"currentPrice"`
	ChangeAbsolute float64   `json:"changeAbsolute"`
	ChangePercent  float64   `json:"changePercent"`
	Volume         int64     `json:"volume"`
	DisplayName    string    `json:"displayName"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

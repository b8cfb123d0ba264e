package domain

import "time"

// Report is the metadata recorded for an archived analytics report.
type Report struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	URI               string    `json:"uri,omitempty"` // object location when archived
	NetWorth          float64   `json:"net_worth"`
	PeriodNet         float64   `json:"period_net"`
	SubscriptionCount int       `json:"subscription_count"`
	HasNarrative      bool      `json:"has_narrative"`
}

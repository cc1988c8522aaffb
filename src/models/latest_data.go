package models

// Event types pushed to websocket clients.
const (
	EventChartLoaded     = "CHART_LOADED"
	EventGroupsRefreshed = "GROUPS_REFRESHED"
	EventFibonacci       = "FIBONACCI"
	EventIndicators      = "INDICATORS"
)

// -----------------------------------------------------------------------------
// Server push envelope
// -----------------------------------------------------------------------------

type MDashboardEvent struct {
	Type              string             `json:"type"`
	Group             string             `json:"group,omitempty"`
	Ticker            string             `json:"ticker,omitempty"`
	Payload           interface{}        `json:"payload,omitempty"`
	Timestamp         int64              `json:"timestamp"`
	ProcessingMetrics MProcessingMetrics `json:"processing_metrics"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command    string   `json:"command"`
	ClientType string   `json:"clientType"`
	Groups     []string `json:"groups"`
	Tickers    []string `json:"tickers"`
	Session    string   `json:"session,omitempty"`
}

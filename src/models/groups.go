package models

// MGroupInfo describes one ticker group.
type MGroupInfo struct {
	Type    string   `json:"type"`
	Tickers []string `json:"tickers"`
}

// MGroupsData maps group name to its description.
type MGroupsData map[string]MGroupInfo

package tui

import (
	"proma/config/models"
)

// ChannelsLoadedMsg is sent when the channel list has been read
type ChannelsLoadedMsg struct {
	Channels []models.Channel
}

// ChannelSavedMsg is sent when a channel was created or updated
type ChannelSavedMsg struct {
	Channel *models.Channel
	Created bool
	Err     error
}

// ChannelDeletedMsg is sent when a channel was deleted
type ChannelDeletedMsg struct {
	ID   string
	Name string
	Err  error
}

// TestResultMsg is sent when a connectivity test completes
type TestResultMsg struct {
	ID     string
	Result models.TestResult
	Err    error
}

// KeyRevealedMsg carries a decrypted API key
type KeyRevealedMsg struct {
	ID  string
	Key string
	Err error
}

// ModelsMergedMsg is sent when fetched models were merged into a channel
type ModelsMergedMsg struct {
	ID      string
	Added   int
	Message string
	Err     error
}

// FileChangedMsg is sent when channels.json changed on disk
type FileChangedMsg struct{}

package tui

import "github.com/mmcdole/suasor/internal/state"

// ChannelObserver forwards store snapshots to a channel for Bubble Tea.
type ChannelObserver[S any] struct {
	ch chan<- state.State[S]
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver[S any](ch chan<- state.State[S]) *ChannelObserver[S] {
	return &ChannelObserver[S]{ch: ch}
}

// OnChange sends the snapshot to the channel (non-blocking if full).
func (o *ChannelObserver[S]) OnChange(st state.State[S]) {
	select {
	case o.ch <- st:
	default: // the view catches up on the next snapshot
	}
}

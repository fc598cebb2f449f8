package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SnapshotManager owns the single process-wide playback snapshot slot, used
// to park playback around temporary interruptions such as announcements. The
// mutex serializes snapshot and restore when control events arrive
// back-to-back.
type SnapshotManager struct {
	service MusicService
	logger  *zap.Logger

	mu   sync.Mutex
	slot *PlaybackSnapshot
}

func NewSnapshotManager(service MusicService, logger *zap.Logger) *SnapshotManager {
	return &SnapshotManager{service: service, logger: logger}
}

// Capture reads the current playback state and overwrites the snapshot slot.
// Repeated captures simply overwrite.
func (m *SnapshotManager) Capture(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.service.PlaybackState(ctx)
	if err != nil {
		return err
	}
	if state == nil || state.TrackURI == "" {
		return fmt.Errorf("nothing is playing, no snapshot captured")
	}

	m.slot = &PlaybackSnapshot{
		DeviceID:   state.Device.ID,
		DeviceName: state.Device.Name,
		ContextURI: state.ContextURI,
		TrackURI:   state.TrackURI,
		ProgressMs: state.ProgressMs,
		Shuffle:    state.Shuffle,
		Repeat:     state.Repeat,
		Playing:    state.Playing,
		CapturedAt: time.Now(),
	}

	m.logger.Info("Captured playback snapshot",
		zap.String("device", state.Device.Name),
		zap.String("track", state.TrackURI),
		zap.Bool("playing", state.Playing))

	return nil
}

// Current returns a copy of the stored snapshot, or nil when the slot is
// empty.
func (m *SnapshotManager) Current() *PlaybackSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slot == nil {
		return nil
	}
	snap := *m.slot
	return &snap
}

// Restore reissues playback from the stored snapshot: same context, track,
// position, shuffle and repeat state, on deviceID when given or the capture
// device otherwise. A paused capture is restored paused, not force-resumed.
// The slot is read, not consumed.
func (m *SnapshotManager) Restore(ctx context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slot == nil {
		return ErrNoSnapshot
	}
	snap := *m.slot

	target := deviceID
	if target == "" {
		target = snap.DeviceID
	}

	plan := PlaybackPlan{
		ContextURI: snap.ContextURI,
		OffsetURI:  snap.TrackURI,
		PositionMs: snap.ProgressMs,
	}
	if snap.ContextURI == "" {
		// Bare track queue: replay the track itself.
		plan = PlaybackPlan{TrackURIs: []string{snap.TrackURI}, PositionMs: snap.ProgressMs}
	}

	if err := m.service.SetShuffle(ctx, target, snap.Shuffle); err != nil {
		return err
	}
	if err := m.service.SetRepeat(ctx, target, snap.Repeat); err != nil {
		return err
	}
	if err := m.service.Play(ctx, target, plan); err != nil {
		return err
	}
	if !snap.Playing {
		if err := m.service.Pause(ctx, target); err != nil {
			return err
		}
	}

	m.logger.Info("Restored playback snapshot",
		zap.String("device", target),
		zap.String("track", snap.TrackURI),
		zap.Duration("age", time.Since(snap.CapturedAt)),
		zap.Bool("playing", snap.Playing))

	return nil
}

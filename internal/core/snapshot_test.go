package core

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"spotplay/pkg/spotifyuri"
)

func playingState() *PlayerState {
	return &PlayerState{
		Device:     Device{ID: "d1", Name: "Office Speaker", Active: true, VolumePercent: 60},
		ContextURI: testURI(spotifyuri.KindPlaylist, 'p'),
		TrackURI:   testURI(spotifyuri.KindTrack, 'a'),
		ProgressMs: 93000,
		Shuffle:    true,
		Repeat:     RepeatContext,
		Playing:    true,
	}
}

func TestSnapshotRestoreWithoutCapture(t *testing.T) {
	service := &mockService{}
	manager := NewSnapshotManager(service, zap.NewNop())

	err := manager.Restore(context.Background(), "")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("Restore() error = %v, expected ErrNoSnapshot", err)
	}
	if len(service.plays)+len(service.shuffles)+len(service.repeats) != 0 {
		t.Error("Restore() issued device commands despite empty snapshot slot")
	}
}

func TestSnapshotCaptureNothingPlaying(t *testing.T) {
	service := &mockService{state: nil}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err == nil {
		t.Error("Capture() error = nil, expected an error with no playback")
	}
	if manager.Current() != nil {
		t.Error("Current() != nil after a failed capture")
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	state := playingState()
	service := &mockService{state: state}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	snap := manager.Current()
	if snap == nil {
		t.Fatal("Current() = nil after capture")
	}
	if snap.TrackURI != state.TrackURI || snap.ProgressMs != state.ProgressMs {
		t.Errorf("Current() = %+v, does not match captured state", snap)
	}

	if err := manager.Restore(context.Background(), ""); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if len(service.plays) != 1 {
		t.Fatalf("Restore() issued %d play commands, expected 1", len(service.plays))
	}
	play := service.plays[0]
	if play.DeviceID != state.Device.ID {
		t.Errorf("Restore() device = %q, expected the capture device %q", play.DeviceID, state.Device.ID)
	}
	if play.Plan.ContextURI != state.ContextURI {
		t.Errorf("Restore() context = %q, expected %q", play.Plan.ContextURI, state.ContextURI)
	}
	if play.Plan.OffsetURI != state.TrackURI {
		t.Errorf("Restore() offset track = %q, expected %q", play.Plan.OffsetURI, state.TrackURI)
	}
	if play.Plan.PositionMs != state.ProgressMs {
		t.Errorf("Restore() position = %d, expected %d", play.Plan.PositionMs, state.ProgressMs)
	}

	if len(service.shuffles) != 1 || !service.shuffles[0].On {
		t.Errorf("Restore() shuffle calls = %v, expected the captured shuffle state", service.shuffles)
	}
	if len(service.repeats) != 1 || service.repeats[0].State != RepeatContext {
		t.Errorf("Restore() repeat calls = %v, expected %q", service.repeats, RepeatContext)
	}
	if len(service.pauses) != 0 {
		t.Errorf("Restore() paused a playing snapshot")
	}
}

func TestSnapshotRestorePaused(t *testing.T) {
	state := playingState()
	state.Playing = false
	service := &mockService{state: state}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if err := manager.Restore(context.Background(), ""); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if len(service.pauses) != 1 {
		t.Errorf("Restore() pause calls = %v, expected the paused capture to stay paused", service.pauses)
	}
}

func TestSnapshotRestoreBareTrack(t *testing.T) {
	state := playingState()
	state.ContextURI = ""
	service := &mockService{state: state}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if err := manager.Restore(context.Background(), ""); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	plan := service.plays[0].Plan
	if plan.ContextURI != "" {
		t.Errorf("Restore() context = %q, expected none", plan.ContextURI)
	}
	if len(plan.TrackURIs) != 1 || plan.TrackURIs[0] != state.TrackURI {
		t.Errorf("Restore() tracks = %v, expected [%s]", plan.TrackURIs, state.TrackURI)
	}
}

func TestSnapshotRestoreToExplicitDevice(t *testing.T) {
	service := &mockService{state: playingState()}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if err := manager.Restore(context.Background(), "d2"); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if service.plays[0].DeviceID != "d2" {
		t.Errorf("Restore() device = %q, expected explicit %q", service.plays[0].DeviceID, "d2")
	}
}

func TestSnapshotRepeatedCaptureOverwrites(t *testing.T) {
	first := playingState()
	service := &mockService{state: first}
	manager := NewSnapshotManager(service, zap.NewNop())

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	second := playingState()
	second.TrackURI = testURI(spotifyuri.KindTrack, 'z')
	service.state = second

	if err := manager.Capture(context.Background()); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	if snap := manager.Current(); snap.TrackURI != second.TrackURI {
		t.Errorf("Current() track = %q, expected the later capture %q", snap.TrackURI, second.TrackURI)
	}
}

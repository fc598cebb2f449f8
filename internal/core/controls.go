package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ControlDispatcher maps simple control intents onto device commands,
// including bounded volume arithmetic and the snapshot/restore actions.
type ControlDispatcher struct {
	service   MusicService
	aliases   *AliasResolver
	snapshots *SnapshotManager
	step      int
	logger    *zap.Logger
}

func NewControlDispatcher(service MusicService, aliases *AliasResolver, snapshots *SnapshotManager, volumeStep int, logger *zap.Logger) *ControlDispatcher {
	if volumeStep <= 0 {
		volumeStep = 5
	}
	return &ControlDispatcher{
		service:   service,
		aliases:   aliases,
		snapshots: snapshots,
		step:      volumeStep,
		logger:    logger,
	}
}

// HandleControl executes one control request. Device is optional; when absent
// the provider's currently active device receives the command.
func (d *ControlDispatcher) HandleControl(ctx context.Context, req *ControlRequest) error {
	deviceID, err := d.lookupDevice(ctx, req.Device)
	if err != nil {
		return err
	}

	// volume_level applies independently of the action.
	if req.VolumeLevel != nil {
		level := *req.VolumeLevel
		if level < 0 || level > 100 {
			return fmt.Errorf("%w: volume_level %d out of range [0,100]", ErrInvalidRequest, level)
		}
		if err := d.service.SetVolume(ctx, deviceID, level); err != nil {
			return err
		}
	}

	if req.TransferTo != "" {
		target, err := d.lookupDevice(ctx, req.TransferTo)
		if err != nil {
			return err
		}
		// The session moves as-is: a paused session stays paused on the
		// target device.
		playing := false
		if state, err := d.service.PlaybackState(ctx); err != nil {
			return err
		} else if state != nil {
			playing = state.Playing
		}
		if err := d.service.Transfer(ctx, target, playing); err != nil {
			return err
		}
	}

	switch req.Action {
	case "":
		return nil
	case ActionPause, ActionStop:
		return d.service.Pause(ctx, deviceID)
	case ActionResume:
		return d.service.Resume(ctx, deviceID)
	case ActionNext:
		return d.service.Next(ctx, deviceID)
	case ActionPrevious:
		return d.service.Previous(ctx, deviceID)
	case ActionMute:
		return d.service.SetVolume(ctx, deviceID, 0)
	case ActionIncreaseVolume:
		return d.adjustVolume(ctx, deviceID, d.step)
	case ActionDecreaseVolume:
		return d.adjustVolume(ctx, deviceID, -d.step)
	case ActionSnapshot:
		return d.snapshots.Capture(ctx)
	case ActionRestore:
		return d.snapshots.Restore(ctx, deviceID)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, req.Action)
	}
}

// adjustVolume steps the device volume, clamped to [0,100]. The baseline is
// the requested device's own volume, not the active device's.
func (d *ControlDispatcher) adjustVolume(ctx context.Context, deviceID string, delta int) error {
	current, err := d.currentVolume(ctx, deviceID)
	if err != nil {
		return err
	}

	volume := current + delta
	if volume > 100 {
		volume = 100
	}
	if volume < 0 {
		volume = 0
	}

	d.logger.Debug("Adjusting volume",
		zap.Int("from", current),
		zap.Int("to", volume))

	return d.service.SetVolume(ctx, deviceID, volume)
}

func (d *ControlDispatcher) currentVolume(ctx context.Context, deviceID string) (int, error) {
	if deviceID == "" {
		state, err := d.service.PlaybackState(ctx)
		if err != nil {
			return 0, err
		}
		if state == nil {
			return 0, fmt.Errorf("%w: no active playback to adjust volume on", ErrInvalidRequest)
		}
		return state.Device.VolumePercent, nil
	}

	devices, err := d.service.Devices(ctx)
	if err != nil {
		return 0, err
	}
	for _, dev := range devices {
		if dev.ID == deviceID {
			return dev.VolumePercent, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown device %q", ErrInvalidRequest, deviceID)
}

// lookupDevice resolves an optional device name to its provider ID. The empty
// name addresses the currently active device.
func (d *ControlDispatcher) lookupDevice(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}

	canonical := d.aliases.Resolve(AliasDevice, name)

	devices, err := d.service.Devices(ctx)
	if err != nil {
		return "", err
	}
	for _, dev := range devices {
		if strings.EqualFold(dev.Name, canonical) {
			return dev.ID, nil
		}
	}

	return "", fmt.Errorf("%w: unknown device %q", ErrInvalidRequest, canonical)
}

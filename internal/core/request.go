package core

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Inbound events carry free-form key/value attributes. Parsing here is the
// single place where loose typing is resolved: for flag fields the presence
// of the key is the signal, regardless of its value.

var controlActions = map[string]ControlAction{
	"pause":           ActionPause,
	"resume":          ActionResume,
	"stop":            ActionStop,
	"next":            ActionNext,
	"next_track":      ActionNext,
	"skip":            ActionNext,
	"previous":        ActionPrevious,
	"previous_track":  ActionPrevious,
	"increase_volume": ActionIncreaseVolume,
	"decrease_volume": ActionDecreaseVolume,
	"mute":            ActionMute,
	"snapshot":        ActionSnapshot,
	"restore":         ActionRestore,
}

// ParsePlayRequest converts a raw play-event attribute map into a typed
// request. Unknown attributes are ignored; a malformed number_tracks is an
// ErrInvalidRequest.
func ParsePlayRequest(attrs map[string]any, logger *zap.Logger) (*PlayRequest, error) {
	req := &PlayRequest{
		Device:       stringAttr(attrs, "device"),
		Track:        stringAttr(attrs, "track"),
		Album:        stringAttr(attrs, "album"),
		Artist:       stringAttr(attrs, "artist"),
		Playlist:     stringAttr(attrs, "playlist"),
		Username:     stringAttr(attrs, "username"),
		Genre:        stringAttr(attrs, "genre"),
		Category:     stringAttr(attrs, "category"),
		Featured:     flagAttr(attrs, "featured"),
		NewReleases:  flagAttr(attrs, "new_releases"),
		Similar:      flagAttr(attrs, "similar"),
		RandomStart:  flagAttr(attrs, "random_start"),
		RandomSearch: flagAttr(attrs, "random_search"),
		Shuffle:      flagAttr(attrs, "shuffle"),
		Single:       flagAttr(attrs, "single"),
		Multiple:     flagAttr(attrs, "multiple"),
		Repeat:       RepeatOff,
	}

	if repeat := stringAttr(attrs, "repeat"); repeat != "" {
		switch repeat {
		case RepeatTrack, RepeatContext, RepeatOff:
			req.Repeat = repeat
		default:
			logger.Warn("Invalid repeat state, defaulting to off",
				zap.String("repeat", repeat))
		}
	}

	if raw, ok := attrs["number_tracks"]; ok {
		n, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: number_tracks %v", ErrInvalidRequest, raw)
		}
		if n > 0 {
			req.NumberTracks = n
		}
	}

	return req, nil
}

// ParseControlRequest converts a raw control-event attribute map into a typed
// request. volume_level outside [0,100] is rejected; clamping only applies to
// increase/decrease arithmetic.
func ParseControlRequest(attrs map[string]any) (*ControlRequest, error) {
	req := &ControlRequest{
		Device:     stringAttr(attrs, "device"),
		TransferTo: stringAttr(attrs, "transfer_playback"),
	}

	if action := stringAttr(attrs, "action"); action != "" {
		mapped, ok := controlActions[action]
		if !ok {
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, action)
		}
		req.Action = mapped
	}

	if raw, ok := attrs["volume_level"]; ok {
		level, err := intValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: volume_level %v", ErrInvalidRequest, raw)
		}
		if level < 0 || level > 100 {
			return nil, fmt.Errorf("%w: volume_level %d out of range [0,100]", ErrInvalidRequest, level)
		}
		req.VolumeLevel = &level
	}

	if req.Action == "" && req.VolumeLevel == nil && req.TransferTo == "" {
		return nil, fmt.Errorf("%w: control event carries no action", ErrInvalidRequest)
	}

	return req, nil
}

func stringAttr(attrs map[string]any, key string) string {
	v, ok := attrs[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// flagAttr treats any present value as "on": events signal flags by attribute
// presence, not by value.
func flagAttr(attrs map[string]any, key string) bool {
	_, ok := attrs[key]
	return ok
}

func intValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

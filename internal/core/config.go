package core

import (
	"time"
)

type Config struct {
	Spotify SpotifyConfig
	MQTT    MQTTConfig
	Server  ServerConfig
	Log     LogConfig
	Aliases AliasConfig
	Play    PlayConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
	Country      string
	Language     string
}

type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TopicBase string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// AliasConfig maps user-configured friendly names to canonical Spotify
// usernames and device names. Loaded once at startup, immutable after.
type AliasConfig struct {
	Users   map[string]string
	Devices map[string]string
}

type PlayConfig struct {
	DefaultTrackCount int
	VolumeStep        int
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURL: "http://localhost:8080/callback",
			TokenPath:   "./spotify_token.json",
			Country:     "CA",
			Language:    "en_CA",
		},
		MQTT: MQTTConfig{
			BrokerURL: "tcp://localhost:1883",
			ClientID:  "spotplay",
			TopicBase: "spotify",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Aliases: AliasConfig{
			Users:   map[string]string{},
			Devices: map[string]string{},
		},
		Play: PlayConfig{
			DefaultTrackCount: 10,
			VolumeStep:        5,
		},
	}
}

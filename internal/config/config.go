package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Recording    RecordingConfig    `mapstructure:"recording" yaml:"recording"`
	Upload       UploadConfig       `mapstructure:"upload" yaml:"upload"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity" yaml:"connectivity"`
	Notify       NotifyConfig       `mapstructure:"notify" yaml:"notify"`
}

type ServerConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type RecordingConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // "portaudio", "arecord", "auto"
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
	Directory  string `mapstructure:"directory" yaml:"directory"`
	FileName   string `mapstructure:"file_name" yaml:"file_name"` // optional, empty = timestamped name
}

type UploadConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	ResumeOnReconnect bool          `mapstructure:"resume_on_reconnect" yaml:"resume_on_reconnect"`
}

type ConnectivityConfig struct {
	ProbeAddress  string        `mapstructure:"probe_address" yaml:"probe_address"`
	ProbeInterval time.Duration `mapstructure:"probe_interval" yaml:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop" yaml:"desktop"`
}

var defaultConfig = Config{
	Server: ServerConfig{
		Timeout: 60 * time.Second,
	},
	Recording: RecordingConfig{
		Backend:    "auto",
		SampleRate: 44100,
		Channels:   1,
		Directory:  filepath.Join(os.Getenv("HOME"), ".cache", "voicedrop"),
	},
	Upload: UploadConfig{
		MaxAttempts: 5,
		BaseDelay:   30 * time.Second,
	},
	Connectivity: ConnectivityConfig{
		ProbeInterval: 10 * time.Second,
		ProbeTimeout:  3 * time.Second,
	},
	Notify: NotifyConfig{
		Desktop: true,
	},
}

// Load reads the configuration file (optional) merged over defaults and
// VOICEDROP_* environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.url", defaultConfig.Server.URL)
	v.SetDefault("server.timeout", defaultConfig.Server.Timeout)
	v.SetDefault("recording.backend", defaultConfig.Recording.Backend)
	v.SetDefault("recording.sample_rate", defaultConfig.Recording.SampleRate)
	v.SetDefault("recording.channels", defaultConfig.Recording.Channels)
	v.SetDefault("recording.directory", defaultConfig.Recording.Directory)
	v.SetDefault("recording.file_name", defaultConfig.Recording.FileName)
	v.SetDefault("upload.max_attempts", defaultConfig.Upload.MaxAttempts)
	v.SetDefault("upload.base_delay", defaultConfig.Upload.BaseDelay)
	v.SetDefault("upload.resume_on_reconnect", defaultConfig.Upload.ResumeOnReconnect)
	v.SetDefault("connectivity.probe_address", defaultConfig.Connectivity.ProbeAddress)
	v.SetDefault("connectivity.probe_interval", defaultConfig.Connectivity.ProbeInterval)
	v.SetDefault("connectivity.probe_timeout", defaultConfig.Connectivity.ProbeTimeout)
	v.SetDefault("notify.desktop", defaultConfig.Notify.Desktop)

	v.SetEnvPrefix("VOICEDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Recording.Directory = expandPath(cfg.Recording.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent. The server
// URL may be empty at load time; commands that contact the server validate it
// themselves so purely local commands still work.
func (c *Config) Validate() error {
	if c.Server.URL != "" {
		if err := ValidateServerURL(c.Server.URL); err != nil {
			return err
		}
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be > 0, got: %v", c.Server.Timeout)
	}

	switch c.Recording.Backend {
	case "auto", "portaudio", "arecord":
	default:
		return fmt.Errorf("recording.backend must be 'auto', 'portaudio' or 'arecord', got: %s", c.Recording.Backend)
	}
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("recording.sample_rate must be > 0, got: %d", c.Recording.SampleRate)
	}
	if c.Recording.Channels != 1 && c.Recording.Channels != 2 {
		return fmt.Errorf("recording.channels must be 1 or 2, got: %d", c.Recording.Channels)
	}
	if c.Recording.Directory == "" {
		return fmt.Errorf("recording.directory is required")
	}

	if c.Upload.MaxAttempts <= 0 {
		return fmt.Errorf("upload.max_attempts must be > 0, got: %d", c.Upload.MaxAttempts)
	}
	if c.Upload.BaseDelay <= 0 {
		return fmt.Errorf("upload.base_delay must be > 0, got: %v", c.Upload.BaseDelay)
	}

	if c.Connectivity.ProbeInterval <= 0 {
		return fmt.Errorf("connectivity.probe_interval must be > 0, got: %v", c.Connectivity.ProbeInterval)
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		return fmt.Errorf("connectivity.probe_timeout must be > 0, got: %v", c.Connectivity.ProbeTimeout)
	}

	return nil
}

// ValidateServerURL checks that the upload endpoint is a usable absolute
// http(s) URL.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url must include a host, got: %s", raw)
	}
	return nil
}

// ProbeAddress returns the host:port the connectivity prober should dial.
// Falls back to the configured server host when no explicit probe address is
// set, so reachability reflects the host the uploads actually go to.
func (c *Config) ProbeAddress() string {
	if c.Connectivity.ProbeAddress != "" {
		return c.Connectivity.ProbeAddress
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		if u.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	return host
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

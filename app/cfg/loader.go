package cfg

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// ErrInvalid is wrapped by every error Load returns.
var ErrInvalid = errors.New("invalid configuration")

type rawCfg struct {
	ConfigFile string `short:"c" long:"config" env:"STATALIH_CONFIG" description:"Path to a YAML configuration file"`

	// Storage
	DBPath    string `long:"db" env:"STATALIH_DB" default:"statalih.db" description:"SQLite database file"`
	ImagesDir string `long:"images-dir" env:"STATALIH_IMAGES_DIR" default:"images" description:"Directory for downloaded item images"`

	// Fetching
	Timeout        int    `long:"timeout" env:"STATALIH_TIMEOUT" default:"10" description:"HTTP request timeout in seconds"`
	ImageWorkers   int    `long:"image-workers" env:"STATALIH_IMAGE_WORKERS" default:"4" description:"Number of concurrent image downloads"`
	MaxFeedSize    int64  `long:"max-feed-size" env:"STATALIH_MAX_FEED_SIZE" default:"10485760" description:"Maximum feed document size in bytes"`
	MaxImageSize   int64  `long:"max-image-size" env:"STATALIH_MAX_IMAGE_SIZE" default:"5242880" description:"Maximum image size in bytes"`
	DiscoverImages bool   `long:"discover-images" env:"STATALIH_DISCOVER_IMAGES" description:"Look up og:image on item pages for items without an image"`
	UserAgent      string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests (default: statalih/<version>)"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Berlin)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Loader owns the command line parser. Commands are registered on Parser
// and Load is called once parsing has finished.
type Loader struct {
	Parser *flags.Parser
	raw    rawCfg
}

func NewLoader() *Loader {
	l := &Loader{}
	l.Parser = flags.NewParser(&l.raw, flags.Default)
	l.Parser.ShortDescription = "feed ingestion"
	return l
}

// Load builds the configuration from the parsed options and the optional
// configuration file. Values from the file replace built-in defaults only.
func (l *Loader) Load() (*Cfg, error) {
	raw := l.raw

	if raw.ConfigFile != "" {
		if err := l.applyFile(&raw, raw.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg := &Cfg{
		ConfigFile:     raw.ConfigFile,
		DBPath:         raw.DBPath,
		ImagesDir:      raw.ImagesDir,
		Timeout:        time.Duration(raw.Timeout) * time.Second,
		ImageWorkers:   raw.ImageWorkers,
		MaxFeedSize:    raw.MaxFeedSize,
		MaxImageSize:   raw.MaxImageSize,
		DiscoverImages: raw.DiscoverImages,
		UserAgent:      cmp.Or(raw.UserAgent, "statalih/"+GetVersion()),
		Port:           raw.Port,
		APIAccessKey:   raw.APIAccessKey,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func (l *Loader) applyFile(raw *rawCfg, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read config file: %v", ErrInvalid, err)
	}

	var file fileCfg
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: failed to parse config file %s: %v", ErrInvalid, path, err)
	}

	fromFile(l, "db", &raw.DBPath, file.DB)
	fromFile(l, "images-dir", &raw.ImagesDir, file.ImagesDir)
	fromFile(l, "timeout", &raw.Timeout, file.Timeout)
	fromFile(l, "image-workers", &raw.ImageWorkers, file.ImageWorkers)
	fromFile(l, "max-feed-size", &raw.MaxFeedSize, file.MaxFeedSize)
	fromFile(l, "max-image-size", &raw.MaxImageSize, file.MaxImageSize)
	fromFile(l, "discover-images", &raw.DiscoverImages, file.DiscoverImages)
	fromFile(l, "user-agent", &raw.UserAgent, file.UserAgent)
	fromFile(l, "port", &raw.Port, file.Port)
	fromFile(l, "api-key", &raw.APIAccessKey, file.APIAccessKey)
	fromFile(l, "timezone", &raw.Timezone, file.Timezone)
	fromFile(l, "debug", &raw.Debug, file.Debug)

	return nil
}

func fromFile[T any](l *Loader, long string, dst *T, src *T) {
	if src != nil && !l.explicit(long) {
		*dst = *src
	}
}

// explicit reports whether an option was given on the command line or
// through its environment variable.
func (l *Loader) explicit(long string) bool {
	opt := l.Parser.FindOptionByLongName(long)
	if opt == nil {
		return false
	}
	if opt.IsSet() && !opt.IsSetDefault() {
		return true
	}
	if opt.EnvDefaultKey != "" {
		if _, ok := os.LookupEnv(opt.EnvDefaultKey); ok {
			return true
		}
	}
	return false
}

func validate(cfg *Cfg) error {
	switch {
	case cfg.DBPath == "":
		return fmt.Errorf("%w: database path must not be empty", ErrInvalid)
	case cfg.ImagesDir == "":
		return fmt.Errorf("%w: images directory must not be empty", ErrInvalid)
	case cfg.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	case cfg.ImageWorkers < 1:
		return fmt.Errorf("%w: image workers must be at least 1", ErrInvalid)
	case cfg.MaxFeedSize <= 0:
		return fmt.Errorf("%w: max feed size must be positive", ErrInvalid)
	case cfg.MaxImageSize <= 0:
		return fmt.Errorf("%w: max image size must be positive", ErrInvalid)
	}
	return nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call Loader.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}

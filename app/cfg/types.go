package cfg

import "time"

type Cfg struct {
	// Storage
	ConfigFile string
	DBPath     string
	ImagesDir  string

	// Fetching
	Timeout        time.Duration
	ImageWorkers   int
	MaxFeedSize    int64
	MaxImageSize   int64
	DiscoverImages bool
	UserAgent      string

	// HTTP server
	Port         string
	APIAccessKey string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// fileCfg mirrors the options that may be set in the YAML configuration
// file. Nil fields are absent from the file.
type fileCfg struct {
	DB             *string `yaml:"db"`
	ImagesDir      *string `yaml:"images_dir"`
	Timeout        *int    `yaml:"timeout"`
	ImageWorkers   *int    `yaml:"image_workers"`
	MaxFeedSize    *int64  `yaml:"max_feed_size"`
	MaxImageSize   *int64  `yaml:"max_image_size"`
	DiscoverImages *bool   `yaml:"discover_images"`
	UserAgent      *string `yaml:"user_agent"`
	Port           *string `yaml:"port"`
	APIAccessKey   *string `yaml:"api_key"`
	Timezone       *string `yaml:"timezone"`
	Debug          *bool   `yaml:"debug"`
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Text  TextConfig  `toml:"text"`
	Cloud CloudConfig `toml:"cloud"`
	Data  DataConfig  `toml:"data"`
}

// TextConfig maps normalization settings.
type TextConfig struct {
	Lang          *string  `toml:"lang"`
	MinToken      *int     `toml:"min-token"`
	Stopwords     []string `toml:"stopwords"`
	StopwordsFile *string  `toml:"stopwords-file"`
}

// CloudConfig maps canvas and layout settings.
type CloudConfig struct {
	Width            *int     `toml:"width"`
	Height           *int     `toml:"height"`
	MinFont          *int     `toml:"min-font"`
	MaxFont          *int     `toml:"max-font"`
	FontStep         *int     `toml:"font-step"`
	MaxWords         *int     `toml:"max-words"`
	Scaling          *string  `toml:"scaling"`
	Margin           *int     `toml:"margin"`
	PreferHorizontal *float64 `toml:"prefer-horizontal"`
	RandomStart      *bool    `toml:"random-start"`
	Seed             *int64   `toml:"seed"`
	Background       *string  `toml:"background"`
	Font             *string  `toml:"font"`
}

// DataConfig maps storage settings.
type DataConfig struct {
	DB *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an
// error. Unknown keys are reported as an error so typos do not pass silently.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Template is written by `weekcloud config` when no file exists.
const Template = `# weekcloud configuration. Command-line flags override these values.

[text]
# lang = "en"            # stopword list: en or none
# min-token = 2
# stopwords = ["app", "chatgpt"]
# stopwords-file = "/path/to/stopwords.txt"

[cloud]
# width = 800
# height = 400
# min-font = 10
# max-font = 0           # 0 means half the canvas height
# font-step = 2
# max-words = 200
# scaling = "sqrt"       # linear, sqrt or log
# margin = 2
# prefer-horizontal = 0.9
# random-start = false
# seed = 0
# background = "white"
# font = "/path/to/font.ttf"

[data]
# db = "/path/to/weekcloud.db"
`

package config

import (
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/toolkits/pkg/file"
)

const Version = "0.3.0"

type Global struct {
	PrintConfigs     bool              `toml:"print_configs"`
	Interval         Duration          `toml:"interval"`
	Labels           map[string]string `toml:"labels"`
	LabelHasHostname bool              `toml:"label_has_hostname"`
}

type LogConfig struct {
	Level  string                 `toml:"level"`
	Format string                 `toml:"format"`
	Output string                 `toml:"output"`
	Fields map[string]interface{} `toml:"fields"`
}

type Forward struct {
	Url     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`

	Client *http.Client `toml:"-"`
}

type Scan struct {
	// default bound on concurrent per-process inspections
	Concurrency int `toml:"concurrency"`
}

type ConfigType struct {
	ConfigDir string `toml:"-"`
	TestMode  bool   `toml:"-"`
	Plugins   string `toml:"-"`

	Global    Global    `toml:"global"`
	LogConfig LogConfig `toml:"log"`
	Forward   Forward   `toml:"forward"`
	Scan      Scan      `toml:"scan"`
}

var Config = Default()

// Default returns a configuration with every default applied and no
// config file behind it.
func Default() *ConfigType {
	c := &ConfigType{}
	c.fillDefaults()
	return c
}

func InitConfig(configDir string, testMode bool, interval int64, plugins, url, loglevel string) error {
	configFile := path.Join(configDir, "config.toml")
	if !file.IsExist(configFile) {
		return fmt.Errorf("configuration file(%s) not found", configFile)
	}

	c := &ConfigType{
		ConfigDir: configDir,
		TestMode:  testMode,
		Plugins:   plugins,
	}

	if _, err := toml.DecodeFile(configFile, c); err != nil {
		return fmt.Errorf("failed to load config file: %s error: %w", configFile, err)
	}

	if interval > 0 {
		c.Global.Interval = Duration(time.Duration(interval) * time.Second)
	}

	if url != "" {
		c.Forward.Url = url
	}

	if loglevel != "" {
		c.LogConfig.Level = loglevel
	}

	c.fillDefaults()

	if !c.TestMode && c.Forward.Url == "" {
		return fmt.Errorf("forward.url is required unless --test is given")
	}

	Config = c
	return nil
}

func (c *ConfigType) fillDefaults() {
	if c.Global.Interval == 0 {
		c.Global.Interval = Duration(30 * time.Second)
	}

	if c.Global.Labels == nil {
		c.Global.Labels = make(map[string]string)
	}

	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}

	if c.LogConfig.Format == "" {
		c.LogConfig.Format = "json"
	}

	if len(c.LogConfig.Output) == 0 {
		c.LogConfig.Output = "stdout"
	}

	if c.LogConfig.Fields == nil {
		c.LogConfig.Fields = make(map[string]interface{})
	}

	if c.Forward.Timeout == 0 {
		c.Forward.Timeout = Duration(10 * time.Second)
	}

	if c.Forward.Client == nil {
		c.Forward.Client = &http.Client{Timeout: time.Duration(c.Forward.Timeout)}
	}

	if c.Scan.Concurrency <= 0 {
		c.Scan.Concurrency = 10
	}
}

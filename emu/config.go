package emu

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"

	"halcyon/emu/log"
	"halcyon/hw/input"
	"halcyon/hw/shaders"
)

type Config struct {
	Input input.Config `toml:"input"`
	Video VideoConfig  `toml:"video"`
	Audio AudioConfig  `toml:"audio"`

	TraceOut io.WriteCloser `toml:"-"`
	WavOut   string         `toml:"-"`
}

type VideoConfig struct {
	DisableVSync bool   `toml:"disable_vsync"`
	ScaleFactor  int    `toml:"scale_factor"`
	Monitor      int32  `toml:"monitor"`
	Shader       string `toml:"shader"`
}

// Check fills in unset values and falls back to the default shader when
// the configured one does not exist.
func (vcfg *VideoConfig) Check() {
	if vcfg.ScaleFactor <= 0 {
		vcfg.ScaleFactor = 4
	}
	if vcfg.Shader == "" {
		vcfg.Shader = shaders.DefaultName
	}
	if !slices.Contains(shaders.Names(), vcfg.Shader) {
		log.ModEmu.Warnf("Invalid shader name %q, fallback to %q", vcfg.Shader, shaders.DefaultName)
		vcfg.Shader = shaders.DefaultName
	}
}

type AudioConfig struct {
	DisableAudio bool `toml:"disable_audio"`
}

var ConfigDir string = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("halcyon")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})()

const cfgFilename = "config.toml"

// LoadConfigOrDefault loads the configuration from the halcyon config
// directory, or provides a default one.
func LoadConfigOrDefault() Config {
	var cfg Config
	_, err := toml.DecodeFile(filepath.Join(ConfigDir, cfgFilename), &cfg)
	if err != nil && !os.IsNotExist(err) {
		log.ModEmu.Warnf("failed to read config: %v", err)
	}
	cfg.Input.Init()
	cfg.Video.Check()
	return cfg
}

// SaveConfig into the halcyon config directory.
func SaveConfig(cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(ConfigDir, cfgFilename), buf, 0644)
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is the on-disk form of export settings. Presets describe how a
// sequence is exported, never the sequence itself.
type Preset struct {
	FPS          int    `yaml:"fps"`
	LoopCount    int    `yaml:"loop"`
	OutputHeight int    `yaml:"height"` // 0 = original resolution
	Optimize     bool   `yaml:"optimize"`
	Quality      int    `yaml:"quality"`
	Format       string `yaml:"format"`
}

// SavePreset writes settings to a YAML preset file.
func SavePreset(s Settings, path string) error {
	p := Preset{
		FPS:          s.FPS,
		LoopCount:    s.LoopCount,
		OutputHeight: s.OutputHeight,
		Optimize:     s.Optimize,
		Quality:      s.Quality,
		Format:       string(s.Format),
	}
	data, err := yaml.Marshal(&p)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadPreset reads a YAML preset file and returns validated settings.
// Fields absent from the file keep their defaults.
func LoadPreset(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}

	p := Preset{
		FPS:          s.FPS,
		LoopCount:    s.LoopCount,
		OutputHeight: s.OutputHeight,
		Optimize:     s.Optimize,
		Quality:      s.Quality,
		Format:       string(s.Format),
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return s, err
	}

	s.FPS = p.FPS
	s.LoopCount = p.LoopCount
	s.OutputHeight = p.OutputHeight
	s.Optimize = p.Optimize
	s.Quality = p.Quality
	s.Format = Format(p.Format)

	if err := s.Validate(); err != nil {
		return Default(), err
	}
	return s, nil
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults are valid", func(s *Settings) {}, false},
		{"fps zero", func(s *Settings) { s.FPS = 0 }, true},
		{"fps negative", func(s *Settings) { s.FPS = -24 }, true},
		{"unconventional fps is fine", func(s *Settings) { s.FPS = 7 }, false},
		{"loop negative", func(s *Settings) { s.LoopCount = -1 }, true},
		{"loop finite", func(s *Settings) { s.LoopCount = 5 }, false},
		{"height negative", func(s *Settings) { s.OutputHeight = -720 }, true},
		{"height explicit", func(s *Settings) { s.OutputHeight = 720 }, false},
		{"quality zero", func(s *Settings) { s.Quality = 0 }, true},
		{"quality over max", func(s *Settings) { s.Quality = 101 }, true},
		{"quality bounds", func(s *Settings) { s.Quality = 1 }, false},
		{"webp", func(s *Settings) { s.Format = FormatWebP }, false},
		{"unknown format", func(s *Settings) { s.Format = "avif" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPresetRoundTrip(t *testing.T) {
	want := Settings{
		FPS:          30,
		LoopCount:    5,
		OutputHeight: 480,
		Optimize:     false,
		Quality:      60,
		Format:       FormatWebP,
	}

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, SavePreset(want, path))

	got, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPresetRejectsInvalid(t *testing.T) {
	bad := Default()
	bad.Quality = 400

	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, SavePreset(bad, path))

	_, err := LoadPreset(path)
	assert.Error(t, err)
}

func TestLoadPresetMissingFile(t *testing.T) {
	_, err := LoadPreset(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

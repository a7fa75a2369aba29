package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, SourceScreen, cfg.Source)
	assert.Equal(t, 30, cfg.FPS)
	assert.True(t, cfg.IncludeCursor)
	assert.Equal(t, ContainerMp4, cfg.Container)
	assert.False(t, cfg.Audio.Enabled())
	assert.Empty(t, cfg.OutputPath)
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()
	base.OutputPath = "/tmp/out.mp4"
	require.Nil(t, base.Validate())

	cases := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"unknown source", func(c *Config) { c.Source = "webcam" }, "source"},
		{"empty source", func(c *Config) { c.Source = "" }, "source"},
		{"fps too low", func(c *Config) { c.FPS = 0 }, "fps"},
		{"fps negative", func(c *Config) { c.FPS = -5 }, "fps"},
		{"fps too high", func(c *Config) { c.FPS = 61 }, "fps"},
		{"unknown container", func(c *Config) { c.Container = "avi" }, "container"},
		{"empty output path", func(c *Config) { c.OutputPath = "" }, "output_path"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.NotNil(t, err)
			assert.Equal(t, tc.wantField, err.Field)
		})
	}
}

func TestConfigValidateBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputPath = "/tmp/out.mkv"
	cfg.Container = ContainerMkv

	cfg.FPS = 1
	assert.Nil(t, cfg.Validate())
	cfg.FPS = 60
	assert.Nil(t, cfg.Validate())
}

func TestConfigValidateAllSources(t *testing.T) {
	for _, src := range []Source{SourceScreen, SourceMonitor, SourceWindow, SourceRegion} {
		cfg := DefaultConfig()
		cfg.Source = src
		cfg.OutputPath = "/tmp/out.mp4"
		assert.Nil(t, cfg.Validate(), "source %s", src)
	}
}

func TestAudioConfigEnabled(t *testing.T) {
	assert.False(t, AudioConfig{}.Enabled())
	assert.True(t, AudioConfig{System: true}.Enabled())
	assert.True(t, AudioConfig{Mic: true}.Enabled())
	assert.True(t, AudioConfig{System: true, Mic: true}.Enabled())
}

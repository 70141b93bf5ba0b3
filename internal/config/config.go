// Package config holds the host settings: where the splash assets live and
// the defaults for the demo window.
package config

// Config is the effective configuration after defaulting.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Splash SplashConfig `yaml:"splash"`
}

// WindowConfig carries the creation parameters for the hosted window.
type WindowConfig struct {
	Title      string `yaml:"title"`
	PosX       int32  `yaml:"pos_x"`
	PosY       int32  `yaml:"pos_y"`
	Width      uint32 `yaml:"width"`
	Height     uint32 `yaml:"height"`
	Bordered   bool   `yaml:"bordered"`
	Resizeable bool   `yaml:"resizeable"`
}

// SplashConfig locates the splash image. The image is looked up under
// CacheRoot/linux/ImagePath; either field being empty disables the splash.
type SplashConfig struct {
	ImagePath string `yaml:"image_path"`
	CacheRoot string `yaml:"cache_root"`
}

func defaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "xwinhost",
			Width:  1280,
			Height: 720,
		},
	}
}

func (c *Config) applyDefaults() {
	def := defaultConfig()
	if c.Window.Title == "" {
		c.Window.Title = def.Window.Title
	}
	if c.Window.Width == 0 {
		c.Window.Width = def.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = def.Window.Height
	}
}

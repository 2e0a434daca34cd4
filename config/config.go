package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Capture    CaptureConfig    `yaml:"capture"`
	Vision     VisionConfig     `yaml:"vision"`
	Speech     SpeechConfig     `yaml:"speech"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Web        WebConfig        `yaml:"web"`
	Log        LogConfig        `yaml:"log"`
}

type CameraConfig struct {
	// Source is "device" (needs the gocv build) or "file".
	Source string `yaml:"source"`
	Index  int    `yaml:"index"`
	Dir    string `yaml:"dir"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Facing string `yaml:"facing"`
}

type CaptureConfig struct {
	Interval string `yaml:"interval"`
}

type VisionConfig struct {
	// Provider is "openrouter", "openai" or "gemini".
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	Referer       string `yaml:"referer"`
	Title         string `yaml:"title"`
	AllowTraining bool   `yaml:"allow_training"`
	MaxTokens     int    `yaml:"max_tokens"`
	// Temperature is a pointer so an explicit 0 survives defaulting.
	Temperature *float64 `yaml:"temperature"`
	Timeout     string   `yaml:"timeout"`
	// Proxy is an optional SOCKS5 address for outbound requests.
	Proxy string `yaml:"proxy"`
}

type SpeechConfig struct {
	// Engine is "openai" for spoken output or "log" to only log utterances.
	Engine     string `yaml:"engine"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Voice      string `yaml:"voice"`
	SampleRate int    `yaml:"sample_rate"`
}

type RecognizerConfig struct {
	// Source is "microphone", "web" or "none".
	Source      string `yaml:"source"`
	Language    string `yaml:"language"`
	APIKey      string `yaml:"api_key"`
	IdleTimeout string `yaml:"idle_timeout"`
}

type WebConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	RateLimit  int    `yaml:"rate_limit"`
	RateWindow string `yaml:"rate_window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data before decoding it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Config{Web: WebConfig{Enabled: true}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Camera.Source == "" {
		c.Camera.Source = "device"
	}
	if c.Camera.Dir == "" {
		c.Camera.Dir = "./frames"
	}
	if c.Camera.Width == 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 480
	}
	if c.Camera.Facing == "" {
		c.Camera.Facing = "environment"
	}
	if c.Capture.Interval == "" {
		c.Capture.Interval = "7s"
	}
	if c.Vision.Provider == "" {
		c.Vision.Provider = "openrouter"
	}
	if c.Vision.Title == "" {
		c.Vision.Title = "VisionaryAI"
	}
	if c.Vision.MaxTokens == 0 {
		c.Vision.MaxTokens = 100
	}
	if c.Vision.Temperature == nil {
		t := 0.7
		c.Vision.Temperature = &t
	}
	if c.Vision.Timeout == "" {
		c.Vision.Timeout = "30s"
	}
	if c.Speech.Engine == "" {
		c.Speech.Engine = "openai"
	}
	if c.Speech.APIKey == "" && c.Vision.Provider == "openai" {
		c.Speech.APIKey = c.Vision.APIKey
	}
	if c.Speech.Model == "" {
		c.Speech.Model = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Speech.SampleRate == 0 {
		c.Speech.SampleRate = 44100
	}
	if c.Recognizer.Source == "" {
		c.Recognizer.Source = "microphone"
	}
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = "en-US"
	}
	if c.Recognizer.APIKey == "" {
		c.Recognizer.APIKey = c.Speech.APIKey
	}
	if c.Recognizer.IdleTimeout == "" {
		c.Recognizer.IdleTimeout = "30s"
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
	if c.Web.RateLimit == 0 {
		c.Web.RateLimit = 30
	}
	if c.Web.RateWindow == "" {
		c.Web.RateWindow = "1m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Vision.APIKey == "" {
		errs = append(errs, errors.New("vision.api_key is required"))
	}
	switch c.Vision.Provider {
	case "openrouter", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("vision.provider %q is not supported", c.Vision.Provider))
	}
	if c.Vision.MaxTokens < 0 {
		errs = append(errs, errors.New("vision.max_tokens must not be negative"))
	}
	if t := c.Vision.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("vision.temperature %v is outside [0, 2]", *t))
	}
	switch c.Camera.Source {
	case "device", "file":
	default:
		errs = append(errs, fmt.Errorf("camera.source %q is not supported", c.Camera.Source))
	}
	switch c.Speech.Engine {
	case "openai":
		if c.Speech.APIKey == "" {
			errs = append(errs, errors.New("speech.api_key is required for the openai engine"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("speech.engine %q is not supported", c.Speech.Engine))
	}
	switch c.Recognizer.Source {
	case "microphone":
		if c.Recognizer.APIKey == "" {
			errs = append(errs, errors.New("recognizer.api_key is required for the microphone"))
		}
	case "web":
		if !c.Web.Enabled {
			errs = append(errs, errors.New("recognizer.source web needs web.enabled"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("recognizer.source %q is not supported", c.Recognizer.Source))
	}

	durations := map[string]string{
		"capture.interval":        c.Capture.Interval,
		"vision.timeout":          c.Vision.Timeout,
		"recognizer.idle_timeout": c.Recognizer.IdleTimeout,
		"web.rate_window":         c.Web.RateWindow,
	}
	for name, v := range durations {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}

// The duration accessors assume a validated config.

func (c CaptureConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

func (c VisionConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c RecognizerConfig) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

func (c WebConfig) RateWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateWindow)
	return d
}

// Package config はアプリケーション全体の設定を読み込みます。
//
// 値は既定値、CONFIG_FILEで指定したYAML、環境変数の順に上書きされます。
// RedisとDBの接続情報はそれぞれのplatformパッケージが環境変数から読み込みます。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"face_cropper/internal/feature/facecrop/usecase"
)

// EnvKeyConfigFile はYAML設定ファイルのパスを指定する環境変数です。
const EnvKeyConfigFile = "CONFIG_FILE"

// 検出器のバックエンド名
const (
	DetectorPigo      = "pigo"
	DetectorVision    = "vision"
	DetectorGemini    = "gemini"
	DetectorInference = "inference"
	DetectorYuNet     = "yunet"
)

// Config はアプリケーション設定です。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Detector DetectorConfig `yaml:"detector"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig はHTTPサーバーの設定です。
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AuthRequired    bool          `yaml:"auth_required"`
	AllowOrigins    []string      `yaml:"allow_origins"`
}

// PipelineConfig は顔切り出しパイプラインのパラメータです。
type PipelineConfig struct {
	MarginRatio    float64 `yaml:"margin_ratio"`
	OutputSize     int     `yaml:"output_size"`
	JPEGQuality    int     `yaml:"jpeg_quality"`
	MaxImageBytes  int     `yaml:"max_image_bytes"`
	MinConfidence  float32 `yaml:"min_confidence"`
	ResampleFilter string  `yaml:"resample_filter"`
}

// DetectorConfig は顔検出器の選択と外部呼び出しの設定です。
type DetectorConfig struct {
	Backend          string        `yaml:"backend"`
	GeminiModel      string        `yaml:"gemini_model"`
	InferenceURL     string        `yaml:"inference_url"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`
	YuNetModelPath   string        `yaml:"yunet_model_path"`
	YuNetScore       float32       `yaml:"yunet_score_threshold"`
	RateLimit        int           `yaml:"rate_limit"` // 0で無制限
	RateInterval     time.Duration `yaml:"rate_interval"`
}

// CacheConfig は検出結果キャッシュの設定です。
type CacheConfig struct {
	TTL       time.Duration `yaml:"ttl"`
	Namespace string        `yaml:"namespace"`
}

// Default は既定の設定を返します。
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowOrigins:    []string{"*"},
		},
		Pipeline: PipelineConfig{
			MarginRatio:    usecase.DefaultMarginRatio,
			OutputSize:     usecase.DefaultOutputSize,
			JPEGQuality:    usecase.DefaultJPEGQuality,
			MaxImageBytes:  usecase.DefaultMaxImageBytes,
			ResampleFilter: usecase.DefaultResampleFilter,
		},
		Detector: DetectorConfig{
			Backend:          DetectorPigo,
			InferenceTimeout: 30 * time.Second,
			YuNetModelPath:   "models/face_detection_yunet.onnx",
			YuNetScore:       0.5,
			RateInterval:     time.Minute,
		},
	}
}

// Load は既定値にYAMLファイルと環境変数を重ねて設定を読み込みます。
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvKeyConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	e := envReader{}

	e.str("PORT", func(v string) { c.Server.Addr = ":" + v })
	e.str("ADDR", func(v string) { c.Server.Addr = v })
	e.duration("READ_TIMEOUT", &c.Server.ReadTimeout)
	e.duration("WRITE_TIMEOUT", &c.Server.WriteTimeout)
	e.duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	e.boolean("AUTH_REQUIRED", &c.Server.AuthRequired)
	e.str("CORS_ALLOW_ORIGINS", func(v string) { c.Server.AllowOrigins = splitList(v) })

	e.decimal("MARGIN_RATIO", &c.Pipeline.MarginRatio)
	e.integer("OUTPUT_SIZE", &c.Pipeline.OutputSize)
	e.integer("JPEG_QUALITY", &c.Pipeline.JPEGQuality)
	e.integer("MAX_IMAGE_BYTES", &c.Pipeline.MaxImageBytes)
	e.decimal32("MIN_CONFIDENCE", &c.Pipeline.MinConfidence)
	e.str("RESAMPLE_FILTER", func(v string) { c.Pipeline.ResampleFilter = v })

	e.str("DETECTOR", func(v string) { c.Detector.Backend = strings.ToLower(v) })
	e.str("GEMINI_MODEL", func(v string) { c.Detector.GeminiModel = v })
	e.str("INFERENCE_URL", func(v string) { c.Detector.InferenceURL = v })
	e.duration("INFERENCE_TIMEOUT", &c.Detector.InferenceTimeout)
	e.str("YUNET_MODEL_PATH", func(v string) { c.Detector.YuNetModelPath = v })
	e.decimal32("YUNET_SCORE_THRESHOLD", &c.Detector.YuNetScore)
	e.integer("DETECTOR_RATE_LIMIT", &c.Detector.RateLimit)
	e.duration("DETECTOR_RATE_INTERVAL", &c.Detector.RateInterval)

	e.duration("CACHE_TTL", &c.Cache.TTL)
	e.str("CACHE_NAMESPACE", func(v string) { c.Cache.Namespace = v })

	return e.err
}

// Validate は設定の整合性を検証します。
func (c Config) Validate() error {
	if _, err := c.Pipeline.Params(); err != nil {
		return err
	}
	switch c.Detector.Backend {
	case DetectorPigo, DetectorVision, DetectorGemini, DetectorYuNet:
	case DetectorInference:
		if c.Detector.InferenceURL == "" {
			return fmt.Errorf("INFERENCE_URL is required for the %s detector", DetectorInference)
		}
	default:
		return fmt.Errorf("unknown detector backend %q", c.Detector.Backend)
	}
	if c.Detector.RateLimit < 0 {
		return fmt.Errorf("detector rate limit must not be negative, got %d", c.Detector.RateLimit)
	}
	if c.Detector.RateLimit > 0 && c.Detector.RateInterval <= 0 {
		return fmt.Errorf("detector rate interval must be positive when a rate limit is set")
	}
	return nil
}

// Params はパイプライン設定をユースケースのパラメータに変換します。
func (p PipelineConfig) Params() (usecase.Params, error) {
	filter, err := usecase.ParseFilter(p.ResampleFilter)
	if err != nil {
		return usecase.Params{}, err
	}
	params := usecase.Params{
		MarginRatio:   p.MarginRatio,
		OutputSize:    p.OutputSize,
		JPEGQuality:   p.JPEGQuality,
		MaxImageBytes: p.MaxImageBytes,
		MinConfidence: p.MinConfidence,
		Filter:        filter,
	}
	if err := params.Validate(); err != nil {
		return usecase.Params{}, err
	}
	return params, nil
}

// envReader は環境変数を型変換しながら読み込み、最初のエラーを保持します。
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key string, err error) {
	e.err = fmt.Errorf("invalid %s: %w", key, err)
}

func (e *envReader) str(key string, set func(string)) {
	if v, ok := e.lookup(key); ok {
		set(v)
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) decimal(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) decimal32(key string, dst *float32) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = float32(f)
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

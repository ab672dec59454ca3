package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix は環境変数の接頭辞です (例: NEWSHARVEST_MIN_DELAY)。
const EnvPrefix = "NEWSHARVEST"

// 設定キー。cobra のフラグ名と同じです。
const (
	KeyTimeout        = "timeout"
	KeyMinDelay       = "min_delay"
	KeyUserAgent      = "user_agent"
	KeyMaxRetries     = "max_retries"
	KeyMaxConcurrency = "max_concurrency"
	KeyLogLevel       = "log_level"
	KeyListenAddr     = "listen_addr"
	KeyStoreDSN       = "store_dsn"
)

// 設定値の検証エラー。
var (
	ErrInvalidTimeout        = errors.New("timeout は正の値である必要があります")
	ErrInvalidMinDelay       = errors.New("min_delay は0以上である必要があります")
	ErrInvalidMaxRetries     = errors.New("max_retries は0以上である必要があります")
	ErrInvalidMaxConcurrency = errors.New("max_concurrency は1以上である必要があります")
	ErrInvalidLogLevel       = errors.New("log_level は debug, info, warn, error のいずれかである必要があります")
)

// Settings はアプリケーション全体の実行時設定です。
type Settings struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MinDelay       time.Duration `mapstructure:"min_delay"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxRetries     int           `mapstructure:"max_retries"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	LogLevel       string        `mapstructure:"log_level"`
	ListenAddr     string        `mapstructure:"listen_addr"`
	StoreDSN       string        `mapstructure:"store_dsn"`
}

// New はデフォルト値と環境変数の読み取りを設定した viper インスタンスを返します。
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyMinDelay, time.Second)
	v.SetDefault(KeyUserAgent, "Mozilla/5.0")
	v.SetDefault(KeyMaxRetries, 0)
	v.SetDefault(KeyMaxConcurrency, 6)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyStoreDSN, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load は configFile (空なら読み込まない) を反映したうえで Settings を組み立てて検証します。
// 優先順位は、フラグ > 環境変数 > 設定ファイル > デフォルト値 です。
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル(%s)の読み込みに失敗しました: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("設定の変換に失敗しました: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate は設定値の範囲を確認します。
func (s *Settings) Validate() error {
	var errs []error
	if s.Timeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if s.MinDelay < 0 {
		errs = append(errs, ErrInvalidMinDelay)
	}
	if s.MaxRetries < 0 {
		errs = append(errs, ErrInvalidMaxRetries)
	}
	if s.MaxConcurrency < 1 {
		errs = append(errs, ErrInvalidMaxConcurrency)
	}
	if _, err := s.ZapLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ZapLevel は LogLevel を zap のレベルに変換します。
func (s *Settings) ZapLevel() (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s.LogLevel)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s.LogLevel)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/internal/config"
	"github.com/shouni/go-news-harvest/internal/pipeline"
)

const (
	appName = "news-harvest"

	// 全体処理のタイムアウトは、ページ数 × (フェッチのタイムアウト + 最小待機) にこの余裕を加えたものです。
	overallTimeoutMargin = 30 * time.Second
)

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	ConfigFile string // --config-file 設定ファイル (YAML/TOML/JSON)
}

var (
	Flags AppFlags

	v        = config.New()
	settings *config.Settings
	logger   = zap.NewNop()
)

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加し、viper に結び付けます。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&Flags.ConfigFile, "config-file", "", "設定ファイルのパス")
	pf.Duration("timeout", 30*time.Second, "1回のHTTPリクエストのタイムアウト")
	pf.Duration("min-delay", time.Second, "同一ホストへのリクエスト間の最小待機時間")
	pf.String("user-agent", "Mozilla/5.0", "送信する User-Agent")
	pf.Int("max-retries", 0, "一時的な失敗に対するリトライ回数 (0 はリトライなし)")
	pf.Int("max-concurrency", 6, "同時に巡回するサイト数の上限")
	pf.String("log-level", "info", "ログレベル (debug, info, warn, error)")
	pf.String("store-dsn", "", "レコードの保存先 (SQLite のパス、sqlite:// または postgres:// のDSN)")

	bindFlags(v, rootCmd, map[string]string{
		config.KeyTimeout:        "timeout",
		config.KeyMinDelay:       "min-delay",
		config.KeyUserAgent:      "user-agent",
		config.KeyMaxRetries:     "max-retries",
		config.KeyMaxConcurrency: "max-concurrency",
		config.KeyLogLevel:       "log-level",
		config.KeyStoreDSN:       "store-dsn",
	})
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		if f := cmd.PersistentFlags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	s, err := config.Load(v, Flags.ConfigFile)
	if err != nil {
		return err
	}
	settings = s

	l, err := newLogger(s, clibase.Flags.Verbose)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}
	logger = l

	logger.Debug("設定を読み込みました",
		zap.Duration("timeout", s.Timeout),
		zap.Duration("min_delay", s.MinDelay),
		zap.Int("max_retries", s.MaxRetries),
		zap.Int("max_concurrency", s.MaxConcurrency),
	)
	return nil
}

// newLogger は verbose の場合は開発用、それ以外は本番用の zap ロガーを生成します。
func newLogger(s *config.Settings, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	level, err := s.ZapLevel()
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// newPipeline は読み込んだ設定から依存関係を組み立てます。
func newPipeline() (*pipeline.Pipeline, error) {
	if settings == nil {
		return nil, fmt.Errorf("設定が初期化されていません")
	}
	return pipeline.New(settings, logger), nil
}

// signalContext は Ctrl+C (SIGINT/SIGTERM) でキャンセルされ、timeout が正なら期限も付いたコンテキストを返します。
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// crawlTimeout は pages ページの巡回にかかる時間の上限を見積もります。
func crawlTimeout(pages int) time.Duration {
	if settings == nil || pages <= 0 {
		return overallTimeoutMargin
	}
	perPage := settings.Timeout + settings.MinDelay
	attempts := time.Duration(settings.MaxRetries + 1)
	return time.Duration(pages)*perPage*attempts + overallTimeoutMargin
}

// Execute は、rootCmd を実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	defer func() { _ = logger.Sync() }()

	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		crawlCmd,
		harvestCmd,
		feedCmd,
		pagesCmd,
		sitesCmd,
		serveCmd,
	)
}

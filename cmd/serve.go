package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/internal/config"
	"github.com/shouni/go-news-harvest/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "クロールAPIとメトリクスを提供するHTTPサーバーを起動します",
	Long: `次のエンドポイントを提供します:
  GET  /healthz     ヘルスチェック
  GET  /metrics     Prometheus メトリクス
  GET  /api/sites   対応サイトの一覧
  POST /api/crawl   {"site","base_url","label","pages"} を受け取り、クロール結果を返す`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}

		srv := server.NewServer(p, p.Registry, logger.Named("server"))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(settings.ListenAddr)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info("HTTPサーバーを停止します")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("シャットダウンに失敗しました", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "待ち受けアドレス")
	_ = v.BindPFlag(config.KeyListenAddr, serveCmd.Flags().Lookup("listen"))
}

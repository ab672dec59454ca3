package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/plan"
	"github.com/shouni/go-news-harvest/pkg/scraper"
)

var harvestFlags struct {
	plan   string
	output string
}

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "計画ファイルのジョブを、サイトごとに並列で巡回します",
	Long: `YAML の計画ファイルに書かれた複数のジョブを実行します。
異なるサイトは並列に、同じサイトのジョブは順番に処理されます。結果はジョブの順で連結されます。`,
	Example: `  news-harvest harvest --plan plan.yaml -o data/news.csv`,
	Args:    cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		pl, err := plan.Load(harvestFlags.plan)
		if err != nil {
			return err
		}
		jobs, err := pl.ScraperJobs()
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		totalPages := 0
		for _, j := range jobs {
			totalPages += j.Pages
		}
		ctx, cancel := signalContext(crawlTimeout(totalPages))
		defer cancel()

		logger.Info("並列クロールを開始します",
			zap.Int("jobs", len(jobs)),
			zap.Int("max_concurrency", settings.MaxConcurrency),
		)

		results, err := p.Harvest(ctx, jobs)

		out := cmd.ErrOrStderr()
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(out, "❌ %s: %v\n", r.Job.BaseURL, r.Err)
				continue
			}
			writeSessionSummary(out, r.Session)
		}
		summary := scraper.Summarize(results)
		fmt.Fprintf(out, "完了: ジョブ %d 件 (失敗 %d), 取得 %d ページ, 失敗 %d ページ, レコード %d 件\n",
			summary.Jobs, summary.FailedJobs, summary.PagesFetched, summary.PagesFailed, summary.Records)

		output := harvestFlags.output
		if output == "" {
			output = pl.Output
		}
		if emitErr := emitRecords(cmd.OutOrStdout(), output, scraper.Records(results)); emitErr != nil {
			return emitErr
		}
		return err
	},
}

func init() {
	harvestCmd.Flags().StringVar(&harvestFlags.plan, "plan", "", "計画ファイル (YAML) のパス")
	harvestCmd.Flags().StringVarP(&harvestFlags.output, "output", "o", "", "CSVの出力先 (省略時は計画ファイルの output、それもなければ表で表示)")

	_ = harvestCmd.MarkFlagRequired("plan")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var crawlFlags struct {
	site   string
	url    string
	label  string
	pages  int
	output string
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "1つのニュースサイトのカテゴリ一覧を巡回し、タイトルと要約を収集します",
	Long: `指定したカテゴリURLから --pages ページ分の一覧を順に取得し、各記事のタイトルと要約に --label を付けて出力します。
--site を省略した場合は URL のホスト名からサイトを判定します。取得に失敗したページはスキップされます。
Ctrl+C で中断した場合は、それまでに集めたレコードを出力します。`,
	Example: `  news-harvest crawl -u https://vnexpress.net/the-thao -l the-thao -p 3
  news-harvest crawl -s zingnews -u https://zingnews.vn/kinh-doanh/trang1.html -l kinh-doanh -o data/zing.csv`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, err := ensureScheme(crawlFlags.url)
		if err != nil {
			return err
		}

		p, err := newPipeline()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(crawlTimeout(crawlFlags.pages))
		defer cancel()

		sess, err := p.Crawl(ctx, crawlFlags.site, baseURL, crawlFlags.label, crawlFlags.pages)
		if err != nil && sess == nil {
			return fmt.Errorf("クロールの実行エラー: %w", err)
		}

		writeSessionSummary(cmd.ErrOrStderr(), sess)
		if emitErr := emitRecords(cmd.OutOrStdout(), crawlFlags.output, sess.Records); emitErr != nil {
			return emitErr
		}
		return err
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlFlags.site, "site", "s", "", "サイト名 (省略時はURLから判定)")
	crawlCmd.Flags().StringVarP(&crawlFlags.url, "url", "u", "", "カテゴリのベースURL")
	crawlCmd.Flags().StringVarP(&crawlFlags.label, "label", "l", "", "レコードに付けるラベル")
	crawlCmd.Flags().IntVarP(&crawlFlags.pages, "pages", "p", 1, "巡回するページ数")
	crawlCmd.Flags().StringVarP(&crawlFlags.output, "output", "o", "", "CSVの出力先 (- で標準出力、省略時は表で表示)")

	_ = crawlCmd.MarkFlagRequired("url")
	_ = crawlCmd.MarkFlagRequired("label")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-news-harvest/pkg/site"
)

var pagesFlags struct {
	site  string
	url   string
	pages int
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "巡回対象のページURLを、ネットワークにアクセスせずに表示します",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, err := ensureScheme(pagesFlags.url)
		if err != nil {
			return err
		}
		s, err := site.Resolve(pagesFlags.site, baseURL)
		if err != nil {
			return err
		}
		if err := s.Validate(baseURL); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, req := range site.Pages(s, baseURL, pagesFlags.pages) {
			fmt.Fprintf(out, "%d\t%s\n", req.PageIndex, req.URL)
		}
		return nil
	},
}

func init() {
	pagesCmd.Flags().StringVarP(&pagesFlags.site, "site", "s", "", "サイト名 (省略時はURLから判定)")
	pagesCmd.Flags().StringVarP(&pagesFlags.url, "url", "u", "", "カテゴリのベースURL")
	pagesCmd.Flags().IntVarP(&pagesFlags.pages, "pages", "p", 1, "ページ数")

	_ = pagesCmd.MarkFlagRequired("url")
}

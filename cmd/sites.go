package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-news-harvest/pkg/site"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "対応しているニュースサイトの一覧を表示します",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		var rows [][]string
		for _, s := range site.All() {
			rows = append(rows, []string{s.Name(), s.DisplayName(), strings.Join(s.Hosts(), ","), s.ExampleURL()})
		}
		writeTable(cmd.OutOrStdout(), []string{"name", "site", "hosts", "example"}, rows)
		return nil
	},
}

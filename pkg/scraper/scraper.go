package scraper

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/site"
	"github.com/shouni/go-news-harvest/pkg/types"
)

const (
	// DefaultMaxConcurrency は、同時に巡回するサイト数のデフォルト値です (対応サイト数と同じ)。
	DefaultMaxConcurrency = 6
)

// Runner は1サイト分のクロールを実行します。*crawler.Engine が実装します。
type Runner interface {
	Run(ctx context.Context, adapter site.Adapter, baseURL, label string, pageCount int) (*crawler.Session, error)
}

// Job は1回のクロールの指定です。
type Job struct {
	Site    site.Adapter
	BaseURL string
	Label   string
	Pages   int
}

// Result は1つの Job の結果です。Err は設定エラーの場合のみ設定されます。
type Result struct {
	Job     Job
	Session *crawler.Session
	Err     error
}

// Harvester は複数サイトを並列に巡回し、結果を1か所に集めます。
// 同じサイトの Job は1つのワーカーが順番に処理するため、同一ホストへの同時リクエストは発生しません。
type Harvester struct {
	runner         Runner
	maxConcurrency int
	logger         *zap.Logger
}

// NewHarvester は Harvester を初期化します。maxConcurrency が0以下の場合はデフォルト値を使います。
func NewHarvester(runner Runner, maxConcurrency int, logger *zap.Logger) *Harvester {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		runner:         runner,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

type indexedResult struct {
	index  int
	result Result
}

// Run は jobs を実行し、入力と同じ順序で結果を返します。
func (h *Harvester) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	groups, order := groupBySite(jobs)

	var wg sync.WaitGroup
	resultsChan := make(chan indexedResult, len(jobs))

	// バッファ付きチャネルをセマフォとして使用し、同時に動くサイトワーカーの数を制限する
	semaphore := make(chan struct{}, h.maxConcurrency)

	for _, name := range order {
		indexes := groups[name]
		wg.Add(1)

		go func(name string, indexes []int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			h.logger.Debug("サイトワーカーを開始します", zap.String("site", name), zap.Int("jobs", len(indexes)))
			for _, i := range indexes {
				resultsChan <- indexedResult{index: i, result: h.runJob(ctx, jobs[i])}
			}
		}(name, indexes)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for res := range resultsChan {
		results[res.index] = res.result
	}
	return results
}

func (h *Harvester) runJob(ctx context.Context, job Job) Result {
	sess, err := h.runner.Run(ctx, job.Site, job.BaseURL, job.Label, job.Pages)
	if err != nil {
		name := "<nil>"
		if job.Site != nil {
			name = job.Site.Name()
		}
		h.logger.Error("ジョブを開始できませんでした", zap.String("site", name), zap.String("base_url", job.BaseURL), zap.Error(err))
		return Result{Job: job, Err: fmt.Errorf("ジョブ(%s)の実行に失敗しました: %w", job.BaseURL, err)}
	}
	return Result{Job: job, Session: sess}
}

// groupBySite はジョブのインデックスをサイトごとにまとめ、サイトの初出順も返します。
func groupBySite(jobs []Job) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, job := range jobs {
		name := ""
		if job.Site != nil {
			name = job.Site.Name()
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], i)
	}
	return groups, order
}

// Records は全結果のレコードをジョブ順に連結します。
func Records(results []Result) []types.ArticleRecord {
	var records []types.ArticleRecord
	for _, r := range results {
		if r.Session != nil {
			records = append(records, r.Session.Records...)
		}
	}
	return records
}

// Summary は全結果のページ数の集計です。
type Summary struct {
	Jobs         int
	FailedJobs   int
	PagesFetched int
	PagesFailed  int
	Records      int
}

// Summarize は結果を集計します。
func Summarize(results []Result) Summary {
	s := Summary{Jobs: len(results)}
	for _, r := range results {
		if r.Err != nil || r.Session == nil {
			s.FailedJobs++
			continue
		}
		s.PagesFetched += r.Session.PagesFetched
		s.PagesFailed += r.Session.PagesFailed
		s.Records += len(r.Session.Records)
	}
	return s
}

// Package plan は複数サイトのクロール計画を YAML ファイルから読み込みます。
package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shouni/go-news-harvest/pkg/scraper"
	"github.com/shouni/go-news-harvest/pkg/site"
)

// 計画ファイルの検証エラー。
var (
	ErrNoJobs         = errors.New("jobs に1件以上のジョブが必要です")
	ErrUnknownSite    = errors.New("site が未対応です")
	ErrMissingBaseURL = errors.New("base_url が必要です")
	ErrMissingLabel   = errors.New("label が必要です")
	ErrInvalidPages   = errors.New("pages は0以上である必要があります")
	ErrInvalidBaseURL = errors.New("base_url がサイトのページ送り方式に合いません")
)

// Plan はクロール計画ファイル全体です。
type Plan struct {
	Output string    `yaml:"output"`
	Jobs   []JobSpec `yaml:"jobs"`
}

// JobSpec は1サイト1カテゴリ分のクロール指定です。
// Site を省略した場合は BaseURL のホスト名からサイトを推定します。
type JobSpec struct {
	Site    string `yaml:"site"`
	BaseURL string `yaml:"base_url"`
	Label   string `yaml:"label"`
	Pages   int    `yaml:"pages"`
}

// Load は path の YAML を読み込み、検証済みの Plan を返します。
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("計画ファイル(%s)を読み込めません: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("計画ファイル(%s)が不正です: %w", path, err)
	}
	return p, nil
}

// Parse は YAML を Plan に変換して検証します。
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗しました: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate はすべてのジョブを検証し、見つかったエラーをまとめて返します。
func (p *Plan) Validate() error {
	if len(p.Jobs) == 0 {
		return ErrNoJobs
	}

	var errs []error
	for i, job := range p.Jobs {
		if _, err := job.resolve(); err != nil {
			errs = append(errs, fmt.Errorf("jobs[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ScraperJobs は計画を scraper.Job の一覧に変換します。
func (p *Plan) ScraperJobs() ([]scraper.Job, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	jobs := make([]scraper.Job, 0, len(p.Jobs))
	for _, spec := range p.Jobs {
		s, _ := spec.resolve()
		jobs = append(jobs, scraper.Job{
			Site:    s,
			BaseURL: strings.TrimSpace(spec.BaseURL),
			Label:   strings.TrimSpace(spec.Label),
			Pages:   spec.Pages,
		})
	}
	return jobs, nil
}

func (j JobSpec) resolve() (*site.Site, error) {
	baseURL := strings.TrimSpace(j.BaseURL)
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if strings.TrimSpace(j.Label) == "" {
		return nil, ErrMissingLabel
	}
	if j.Pages < 0 {
		return nil, ErrInvalidPages
	}

	s, err := site.Resolve(j.Site, baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownSite, err)
	}
	if err := s.Validate(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	return s, nil
}

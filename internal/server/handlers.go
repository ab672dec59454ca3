package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shouni/go-news-harvest/pkg/crawler"
	"github.com/shouni/go-news-harvest/pkg/site"
)

// CrawlRequest は POST /api/crawl の本文です。
type CrawlRequest struct {
	Site    string `json:"site"`
	BaseURL string `json:"base_url"`
	Label   string `json:"label"`
	Pages   int    `json:"pages"`
}

// SiteInfo は GET /api/sites の1要素です。
type SiteInfo struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Hosts       []string `json:"hosts"`
	ExampleURL  string   `json:"example_url"`
}

func (s *Server) handleCrawlRequest(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "リクエスト本文が不正です")
		return
	}
	if strings.TrimSpace(req.BaseURL) == "" {
		s.respondWithError(w, http.StatusBadRequest, "base_url は必須です")
		return
	}
	if req.Pages > s.maxPages {
		s.respondWithError(w, http.StatusBadRequest, "pages が上限を超えています")
		return
	}

	sess, err := s.crawler.Crawl(r.Context(), req.Site, req.BaseURL, req.Label, req.Pages)
	if err != nil {
		if crawler.IsConfigError(err) {
			s.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("クロールに失敗しました",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("base_url", req.BaseURL),
			zap.Error(err),
		)
		if sess != nil {
			// 保存には失敗したが、収集結果は返す
			s.respondWithJSON(w, http.StatusInternalServerError, sess)
			return
		}
		s.respondWithError(w, http.StatusInternalServerError, "クロールに失敗しました")
		return
	}

	s.respondWithJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites := site.All()
	infos := make([]SiteInfo, 0, len(sites))
	for _, st := range sites {
		infos = append(infos, SiteInfo{
			Name:        st.Name(),
			DisplayName: st.DisplayName(),
			Hosts:       st.Hosts(),
			ExampleURL:  st.ExampleURL(),
		})
	}
	s.respondWithJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("レスポンスのエンコードに失敗しました", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

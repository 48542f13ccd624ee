package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"distributed-search/internal/metrics"
	"distributed-search/internal/optic"
	"distributed-search/internal/searcher"
	"distributed-search/internal/similarhosts"
)

// Handler holds the dependencies the /search endpoint needs: the
// composed distributed searcher and a global concurrency limiter,
// mirroring the teacher's Handler{store, replicator, membership}
// injection shape (internal/api/handlers.go) but over a completely
// different route surface.
type Handler struct {
	searcher         *searcher.DistributedSearcher
	similarHosts     *similarhosts.Finder
	logger           *zap.Logger
	sem              *semaphore.Weighted
	defaultNumResult int
}

// NewHandler builds a Handler. maxInFlight is the global concurrency
// limit spec.md §5 calls "the one deliberate backpressure point"; a
// value <= 0 disables the limit. similarHosts may be nil, in which
// case GET /similar-hosts reports 503.
func NewHandler(s *searcher.DistributedSearcher, similarHosts *similarhosts.Finder, logger *zap.Logger, maxInFlight int64, defaultNumResult int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultNumResult <= 0 {
		defaultNumResult = 20
	}
	var sem *semaphore.Weighted
	if maxInFlight > 0 {
		sem = semaphore.NewWeighted(maxInFlight)
	}
	return &Handler{searcher: s, similarHosts: similarHosts, logger: logger, sem: sem, defaultNumResult: defaultNumResult}
}

// Register mounts all routes on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/search", h.Search)
	r.GET("/similar-hosts", h.SimilarHosts)
	r.GET("/health", h.Health)
}

// Search handles GET /search?q=...&page=...&num=...
//
// An empty query or a bang-prefixed query short-circuits to a redirect
// rather than a JSON result set, matching spec.md §6's "Exit
// conditions": a bang resolves to the target engine's URL; an empty
// query resolves to the front page.
func (h *Handler) Search(c *gin.Context) {
	if h.sem != nil {
		if !h.sem.TryAcquire(1) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many concurrent searches"})
			return
		}
		metrics.InFlightSearches.Inc()
		defer func() {
			h.sem.Release(1)
			metrics.InFlightSearches.Dec()
		}()
	}

	q := c.Query("q")
	page := atoiDefault(c.Query("page"), 0)
	numResults := atoiDefault(c.Query("num"), h.defaultNumResult)

	query := searcher.Query{
		Text:       q,
		Page:       page,
		NumResults: numResults,
	}

	if opticSrc := c.Query("optic"); opticSrc != "" {
		parsed, err := optic.Parse(opticSrc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optic: " + err.Error()})
			return
		}
		query.Optic = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.searcher.Search(ctx, query)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err), zap.String("query", q))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if result.BangRedirect != "" {
		c.Redirect(http.StatusFound, result.BangRedirect)
		return
	}
	if q == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":          q,
		"page":           page,
		"num_results":    numResults,
		"num_hits":       result.NumHits,
		"has_more_pages": result.HasMorePages,
		"webpages":       result.Webpages,
	})
}

// SimilarHosts handles GET /similar-hosts?host=...&host=...&limit=...,
// the HTTP surface for the similar-hosts finder (spec.md §4.7).
func (h *Handler) SimilarHosts(c *gin.Context) {
	if h.similarHosts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "similar-hosts finder is not configured"})
		return
	}

	seedHosts := c.QueryArray("host")
	if len(seedHosts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one host parameter is required"})
		return
	}
	limit := atoiDefault(c.Query("limit"), 20)
	urlFilters := c.QueryArray("url_contains")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.similarHosts.FindSimilarHosts(ctx, seedHosts, limit, urlFilters)
	if err != nil {
		h.logger.Error("similar-hosts failed", zap.Error(err), zap.Strings("seed_hosts", seedHosts))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"seed_hosts": seedHosts, "results": results})
}

// Health handles GET /health — used by load balancers and readiness probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

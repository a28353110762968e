package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-harvest/app/feed"
	"github.com/lysyi3m/rss-harvest/app/snapshot"
)

// NewHandler wires the snapshot store to HTTP. trigger and runs may be nil.
func NewHandler(store snapshot.Store, p PipelineInterface, trigger TriggerInterface, runs RunHistoryInterface, version string) *Handler {
	return &Handler{
		store:     store,
		generator: feed.NewGenerator(),
		pipeline:  p,
		trigger:   trigger,
		runs:      runs,
		version:   version,
	}
}

// resourceKey maps "/latest.json" or "/categories/sports.json" to a store key.
func resourceKey(resource string) (string, bool) {
	name, ok := strings.CutSuffix(strings.TrimPrefix(resource, "/"), ".json")
	if !ok || name == "" {
		return "", false
	}

	if name == snapshot.KeyLatest || name == snapshot.KeyIndex {
		return name, true
	}

	kind, key, found := strings.Cut(name, "/")
	if !found || key == "" || strings.Contains(key, "/") || !slices.Contains(snapshot.Kinds, kind) {
		return "", false
	}

	return kind + "/" + key, true
}

func (h *Handler) GetResource(c *gin.Context) {
	key, ok := resourceKey(c.Param("resource"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown resource"})
		return
	}

	data, err := h.store.Get(key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
			return
		}
		slog.Error("Snapshot read error", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read resource"})
		return
	}

	c.Header("Cache-Control", "public, max-age=60")
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// GetRSS renders latest or a partition as an RSS 2.0 feed.
func (h *Handler) GetRSS(c *gin.Context) {
	resource := c.Param("resource")
	key, ok := resourceKey(strings.TrimSuffix(resource, ".xml") + ".json")
	if !ok || key == snapshot.KeyIndex {
		c.Status(http.StatusNotFound)
		return
	}

	data, err := h.store.Get(key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Snapshot read error", "key", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	var articles []feed.Article
	if key == snapshot.KeyLatest {
		var latest snapshot.Latest
		err = json.Unmarshal(data, &latest)
		articles = latest.Items
	} else {
		err = json.Unmarshal(data, &articles)
	}
	if err != nil {
		slog.Error("Snapshot decode error", "key", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	channel := feed.Channel{
		Title:     "rss-harvest: " + key,
		Link:      requestBaseURL(c),
		SelfLink:  requestBaseURL(c) + c.Request.URL.Path,
		Generator: fmt.Sprintf("rss-harvest/%s", h.version),
	}
	if kind, lang, _ := strings.Cut(key, "/"); kind == snapshot.KindLang {
		channel.Language = lang
	}

	rss, err := h.generator.Run(channel, articles)
	if err != nil {
		slog.Error("RSS generation error", "key", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"running":   h.pipeline.Running(),
	}

	if last := h.pipeline.LastRun(); last != nil {
		health["last_run"] = last.GeneratedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"running": h.pipeline.Running(),
	}

	if last := h.pipeline.LastRun(); last != nil {
		stats["last_run"] = map[string]interface{}{
			"run_id":       last.RunID,
			"generated_at": last.GeneratedAt,
			"day":          last.DayKey,
			"total":        last.Total,
			"processed":    last.Processed,
			"discovered":   last.Discovered,
			"fetched":      last.Fetched,
			"not_modified": last.NotModified,
			"skipped":      last.Skipped,
			"errors":       last.Errors,
			"enriched":     last.Enriched,
			"shard_index":  last.ShardIndex,
			"shard_of":     last.ShardOf,
			"duration":     last.Duration.String(),
		}
	}

	if h.runs != nil {
		ctx := c.Request.Context()
		history := map[string]interface{}{}

		if count, err := h.runs.GetRunCount(ctx); err == nil {
			history["runs"] = count
		} else {
			slog.Error("Database error", "operation", "get_run_count", "error", err)
		}

		if run, err := h.runs.GetLatestRun(ctx); err == nil && run != nil {
			history["latest"] = map[string]interface{}{
				"run_id":       run.ID,
				"generated_at": run.GeneratedAt,
				"total":        run.Total,
				"processed":    run.Processed,
				"discovered":   run.Discovered,
				"errors":       run.Errors,
				"shard_index":  run.ShardIndex,
				"duration":     run.Duration.String(),
			}
		} else if err != nil {
			slog.Error("Database error", "operation", "get_latest_run", "error", err)
		}

		stats["history"] = history
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIRefresh(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Refresh is not available"})
		return
	}

	if !h.trigger.Trigger() {
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Run started",
	})
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

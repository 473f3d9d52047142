package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"

	"twitchlate/internal/app/adapters/bot"
	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

type Handlers struct {
	log     logger.Logger
	manager *config.Manager
	bot     ports.BotPort
	feed    ports.FeedPort
	started time.Time
}

func New(log logger.Logger, manager *config.Manager, b ports.BotPort, feed ports.FeedPort) *Handlers {
	return &Handlers{
		log:     log,
		manager: manager,
		bot:     b,
		feed:    feed,
		started: time.Now(),
	}
}

type startRequest struct {
	Channel        string `json:"channel"`
	TargetLanguage string `json:"targetLanguage"`
}

func (h *Handlers) StartHandler(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.TargetLanguage == "" {
		req.TargetLanguage = h.manager.Get().Translator.TargetLanguage
	}
	if req.Channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing channel"})
		return
	}

	if err := h.bot.Start(req.Channel, req.TargetLanguage); err != nil {
		h.log.Error("Bot start failed", err)

		status := http.StatusInternalServerError
		if errors.Is(err, bot.ErrMissingCredentials) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"channel":  h.bot.Status().Channel,
		"language": req.TargetLanguage,
	})
}

func (h *Handlers) StopHandler(c *gin.Context) {
	if err := h.bot.Stop(); err != nil {
		if errors.Is(err, bot.ErrNotRunning) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot stopped"})
}

func (h *Handlers) StatusHandler(c *gin.Context) {
	st := h.bot.Status()

	c.JSON(http.StatusOK, gin.H{
		"running": st.Running,
		"channel": st.Channel,
	})
}

// StatsHandler reports process health for the dashboard's footer.
func (h *Handlers) StatsHandler(c *gin.Context) {
	var cpuPercent float64
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"uptime_secs":      int64(time.Since(h.started).Seconds()),
		"cpu_percent":      cpuPercent,
		"heap_alloc_bytes": mem.HeapAlloc,
		"goroutines":       runtime.NumGoroutine(),
		"feed_subscribers": h.feed.Subscribers(),
		"log_level":        h.log.GetLogLevel(),
	})
}

func (h *Handlers) LanguagesHandler(c *gin.Context) {
	languages := make([]gin.H, 0, len(config.SupportedLanguages))
	for code, name := range config.SupportedLanguages {
		languages = append(languages, gin.H{"code": code, "name": name})
	}

	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

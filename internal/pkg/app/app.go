package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/proxy"

	"twitchlate/internal/app/adapters/bot"
	"twitchlate/internal/app/adapters/feed"
	router "twitchlate/internal/app/adapters/http"
	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/adapters/platform/twitch"
	"twitchlate/internal/app/adapters/translator"
	"twitchlate/internal/app/domain/names"
	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/infrastructure/storage"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

const configPath = "config.json"

func New() error {
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: http.DefaultTransport,
	}
	log := logger.New()

	manager, err := config.New(configPath)
	if err != nil {
		log.Fatal("Error loading config", err)
	}

	cfg := manager.Get()
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && cfg.Proxy.Port != 0 {
		dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", cfg.Proxy.Address, cfg.Proxy.Port), nil, proxy.Direct)
		if err != nil {
			return err
		}

		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	}

	log.SetLogLevel(cfg.App.LogLevel)
	gin.SetMode(cfg.App.GinMode)

	prometheus.MustRegister(metrics.ProviderRequestTime)

	if cfg.Cache.Persist {
		dir := filepath.Dir(cfg.Cache.FilePath)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.Mkdir(dir, 0700); err != nil {
				log.Error("Error creating cache directory", err)
				return err
			}
		} else if err != nil {
			log.Error("Error stat cache directory", err)
			return err
		}
	}

	cache := storage.NewCache[ports.TranslationResult](
		cfg.Cache.Capacity,
		time.Duration(cfg.Cache.TTLSecs)*time.Second,
		cfg.Cache.Persist,
		cfg.Cache.FilePath,
		time.Duration(cfg.Cache.FlushInterval)*time.Second,
	)

	transport := translator.NewTransport(log, client, cfg.Translator)
	svc := translator.New(log, transport, cache, names.New(cfg.Translator.ProtectedNames))

	hub := feed.New(log)
	chat := twitch.New(log, manager)
	session := bot.New(log, manager, chat, svc, hub)

	log.Info("Translate bot ready")

	r := router.NewRouter(log, manager, session, hub)
	return r.Run()
}

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ctolnik/oaproxy/internal/account"
	"github.com/ctolnik/oaproxy/internal/logging"
	"github.com/ctolnik/oaproxy/internal/proxy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logging.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)

	provider, err := account.LoadFileProvider(cfg.Accounts)
	if err != nil {
		logging.Error("Failed to load accounts: %v", err)
		os.Exit(1)
	}

	proxyService := NewProxyService(cfg, provider)

	if err := proxyService.Start(); err != nil {
		logging.Error("Failed to start proxy service: %v", err)
		os.Exit(1)
	}

	logging.Info("oaproxy started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logging.Info("shutting down oaproxy...")
	proxyService.Stop()
	logging.Info("oaproxy stopped")
}

// ProxyService owns one supervisor per configured route.
type ProxyService struct {
	config      *Config
	provider    account.Provider
	supervisors []*proxy.Supervisor
}

func NewProxyService(config *Config, provider account.Provider) *ProxyService {
	return &ProxyService{config: config, provider: provider}
}

func (ps *ProxyService) Start() error {
	for _, route := range ps.config.ProxyRoutes() {
		sup := proxy.NewSupervisor(route, ps.provider)
		if err := sup.Start(); err != nil {
			ps.Stop()
			return err
		}
		ps.supervisors = append(ps.supervisors, sup)
	}

	logging.Info("oaproxy supports:")
	logging.Info("  - local SMTP with AUTH PLAIN -> upstream XOAUTH2 substitution")
	logging.Info("  - local IMAP with LOGIN -> upstream XOAUTH2 substitution")
	logging.Info("  - %d configured route(s)", len(ps.supervisors))

	return nil
}

func (ps *ProxyService) Stop() {
	for _, sup := range ps.supervisors {
		sup.Stop()
	}
}

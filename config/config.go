package config

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload" // Auto-load .env file
	"golang.org/x/net/proxy"
)

const (
	// Server
	Port = 5001

	// Where saved payloads land
	DownloadDir = "./downloads"

	// Bounded waits
	InfoTimeout     = 30 * time.Second
	DownloadTimeout = 120 * time.Second

	// Delay before releasing a saved payload's transient handle, so the
	// save action has consumed it before the handle goes away
	ReleaseGrace = 500 * time.Millisecond

	// Cleanup
	CleanupInterval = "0 * * * *" // Every hour
	MaxFileAge      = 24 * time.Hour

	// Attempt ID (nanoid) length used for task logging
	AttemptIDLength = 21
)

// Remote API base, overridable via env
var (
	APIBase          = getEnv("API_BASE", "http://127.0.0.1:8300")
	InfoEndpoint     = APIBase + "/api/info"
	DownloadEndpoint = APIBase + "/api/download"

	// Optional SOCKS5 proxy for both clients
	ProxyAddr = os.Getenv("PROXY_ADDR")
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// HTTP Clients (reuse connections via pooling). Deadlines are applied per
// request through contexts, not via client-level timeouts, so that a fired
// deadline cancels the transfer mid-read as well.
var (
	InfoClient     *http.Client
	DownloadClient *http.Client
)

func newTransport(disableCompression bool) *http.Transport {
	t := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  disableCompression,
	}
	if ProxyAddr != "" {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer, err := proxy.SOCKS5("tcp", ProxyAddr, nil, proxy.Direct)
			if err != nil {
				return nil, err
			}
			return dialer.Dial(network, addr)
		}
	}
	return t
}

func init() {
	InfoClient = &http.Client{Transport: newTransport(false)}
	// Gzip disabled for payload downloads - raw bytes only
	DownloadClient = &http.Client{Transport: newTransport(true)}
}

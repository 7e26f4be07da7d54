package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// newHTTPClient proxy 为空时直连
func newHTTPClient(proxy string, timeout time.Duration) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return client, nil
	}

	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	client.Transport = &http.Transport{
		Proxy:               http.ProxyURL(proxyURL),
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	return client, nil
}

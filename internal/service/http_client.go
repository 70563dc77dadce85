package service

import (
	"net/http"
	"time"
)

// NewHTTPClient builds a pooled client for one outbound caller. The
// timeout caps the full request, so the LLM caller is constructed with
// the pipeline timeout while search and webhook use short ones.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

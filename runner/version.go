package runner

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusPath substitutes the geocoder's autocomplete endpoint. Only mimir
// exposes /status; other geocoders simply report no version.
const (
	autocompletePath = "/autocomplete"
	statusPath       = "/status"
)

// statusClient skips certificate verification because test stacks usually
// run with self-signed certificates.
var statusClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// FetchVersion queries the geocoder's status endpoint for its version.
// Any failure is logged as a warning and yields nil; the version is
// informational and never blocks a run.
func FetchVersion(ctx context.Context, url string, log *slog.Logger) *string {
	if log == nil {
		log = slog.Default()
	}
	if !strings.Contains(url, autocompletePath) {
		return nil
	}
	statusURL := strings.Replace(url, autocompletePath, statusPath, 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		log.Warn("failed to build status request", "url", statusURL, "error", err)
		return nil
	}
	resp, err := statusClient.Do(req)
	if err != nil {
		log.Warn("failed to fetch geocoder version", "url", statusURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("failed to fetch geocoder version", "url", statusURL, "status", resp.Status)
		return nil
	}

	var status struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		log.Warn("failed to decode geocoder status", "url", statusURL, "error", err)
		return nil
	}
	if status.Version == "" {
		return nil
	}
	return &status.Version
}

// FILE: lixenwraith/tvconfig/backend.go
package tvconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// EDCBNamedPipeHost is the host sentinel selecting the local named pipe instead of TCP.
const EDCBNamedPipeHost = "edcb-namedpipe"

// UserAgent is sent with backend HTTP probes.
const UserAgent = "tvconfig/1.0"

// EDCBClient performs the service enumeration used as the EDCB reachability probe.
type EDCBClient interface {
	// EnumService returns the number of enumerated services.
	EnumService(ctx context.Context) (int, error)
}

// EDCBDialer creates a client for host:port. Port is 0 for the named pipe sentinel.
type EDCBDialer func(host string, port int, timeout time.Duration) EDCBClient

// HTTPDoer is the subset of *http.Client used by the Mirakurun probe.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// edcbEndpoint extracts host and port from a tcp:// URL. A missing port yields 0.
func edcbEndpoint(raw string) (string, int) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		port = 0
	}
	return u.Hostname(), port
}

// checkEDCB verifies that EDCB answers a service enumeration within EDCBProbeTimeout.
func checkEDCB(ctx context.Context, edcbURL string, dial EDCBDialer, log *zap.Logger) *FieldError {
	host, port := edcbEndpoint(edcbURL)
	if host == "" || (port == 0 && host != EDCBNamedPipeHost) {
		return domainError("general.edcb_url",
			"The URL does not specify a host name or port.",
			"The EDCB URL may be incorrect.")
	}

	ctx, cancel := context.WithTimeout(ctx, EDCBProbeTimeout)
	defer cancel()

	// Enumeration runs on its own goroutine so a blocking client cannot stall the caller past the deadline
	type result struct {
		count int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		count, err := dial(host, port, EDCBProbeTimeout).EnumService(ctx)
		done <- result{count: count, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		log.Debug("EDCB probe failed", zap.String("url", edcbURL), zap.Error(res.err))
		return domainError("general.edcb_url",
			fmt.Sprintf("Could not access EDCB (%s/).", edcbURL),
			"EDCB may not be running, or the URL may be incorrect.")
	}

	log.Info(fmt.Sprintf("Backend: EDCB (%s/)", edcbURL), zap.Int("services", res.count))
	return nil
}

// checkMirakurun verifies that the URL serves a Mirakurun version document.
func checkMirakurun(ctx context.Context, mirakurunURL string, client HTTPDoer, log *zap.Logger) *FieldError {
	unreachable := domainError("general.mirakurun_url",
		fmt.Sprintf("Could not access Mirakurun (%s/).", mirakurunURL),
		"Mirakurun may not be running, or the URL may be incorrect.")
	notMirakurun := domainError("general.mirakurun_url",
		fmt.Sprintf("%s/ is not a Mirakurun URL.", mirakurunURL),
		"The Mirakurun URL may be incorrect.")

	ctx, cancel := context.WithTimeout(ctx, MirakurunProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mirakurunURL+"/api/version", nil)
	if err != nil {
		return unreachable
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		log.Debug("Mirakurun probe failed", zap.String("url", mirakurunURL), zap.Error(err))
		return unreachable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return unreachable
	}

	if resp.StatusCode != http.StatusOK || !gjson.ValidBytes(body) {
		return notMirakurun
	}
	current := gjson.GetBytes(body, "current")
	if !current.Exists() || current.Type == gjson.Null {
		return notMirakurun
	}

	log.Info(fmt.Sprintf("Backend: Mirakurun %s (%s/)", current.String(), mirakurunURL))
	return nil
}

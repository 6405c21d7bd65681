package connectivity

import (
	"context"
	"net"
	"net/http"
	"time"
)

// captivePortalCheckURL is a well-known endpoint that returns a 204 when
// there is no captive portal intercepting traffic.
const captivePortalCheckURL = "http://connectivitycheck.gstatic.com/generate_204"

// httpFallbackClient is shared across fallback probes; a short
// DialContext timeout bounds connect time independently of the overall
// request timeout, matching the teacher's HTTP client construction style.
var httpFallbackClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 3 * time.Second,
		}).DialContext,
	},
}

// httpProbe performs a captive-portal-style HTTP fallback check, accepting
// 200 or 204 as evidence of internet reachability.
func httpProbe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, captivePortalCheckURL, nil)
	if err != nil {
		return false
	}
	resp, err := httpFallbackClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent
}

package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HealthStatus represents the aggregated server health.
type HealthStatus struct {
	Status    string            `json:"status"` // "ok", "degraded"
	Checks    map[string]string `json:"checks"` // component → "ok"/"error"
	Resources int               `json:"resources"`
}

// Health fetches the server health report. A degraded server answers 503
// with a report, which is returned without error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	err := c.run("health", "", func() error {
		_, err := c.do(ctx, http.MethodGet, []string{"health"}, nil, nil, &out)
		if apiErr, ok := asStatus(err, http.StatusServiceUnavailable); ok {
			if jerr := json.Unmarshal(apiErr.Body, &out); jerr == nil {
				return nil
			}
		}
		return err
	})
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	return out, nil
}

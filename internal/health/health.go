// Package health answers GET /health with {status, model}.
package health

import (
	"context"
)

// Prober reports whether the backing detector service is reachable.
// detectpool.HTTPDetector satisfies this.
type Prober interface {
	IsHealthy(ctx context.Context) bool
}

// Status is the JSON body GET /health returns.
type Status struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// Checker answers health checks against the configured detector pool.
type Checker struct {
	probes []Prober
	model  string
}

// NewChecker builds a Checker over the given detector probes and the
// configured model/endpoint name to report back.
func NewChecker(model string, probes ...Prober) *Checker {
	return &Checker{probes: probes, model: model}
}

// Check reports "ok" only if every pooled detector is reachable.
func (c *Checker) Check(ctx context.Context) Status {
	status := "ok"
	for _, p := range c.probes {
		if !p.IsHealthy(ctx) {
			status = "degraded"
			break
		}
	}
	if len(c.probes) == 0 {
		status = "degraded"
	}
	return Status{Status: status, Model: c.model}
}

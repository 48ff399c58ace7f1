package doctor

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/frampt/internal/config"
	"github.com/rileyhilliard/frampt/pkg/session"
	"github.com/rileyhilliard/frampt/pkg/sshutil"
)

// HostReachableCheck probes a host and reads its SSH banner. It does not
// authenticate.
type HostReachableCheck struct {
	HostName  string
	Address   string
	Transport session.Transport
	Timeout   time.Duration

	Latency time.Duration // Populated after Run()
}

func (c *HostReachableCheck) Name() string     { return "host_" + c.HostName }
func (c *HostReachableCheck) Category() string { return CategoryHosts }

func (c *HostReachableCheck) Run() CheckResult {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = config.DefaultProbeTimeout
	}

	start := time.Now()
	if err := c.Transport.Probe(c.Address, timeout); err != nil {
		suggestion := fmt.Sprintf("%s may be offline or firewalled", c.HostName)
		var probeErr *sshutil.ProbeError
		if stderrors.As(err, &probeErr) {
			suggestion = probeErr.Reason.Suggestion()
		}
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s (%s): %v", c.HostName, c.Address, err),
			Suggestion: suggestion,
		}
	}

	conn, err := c.Transport.Handshake(c.Address)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s (%s) accepts TCP but is not speaking SSH: %v", c.HostName, c.Address, err),
			Suggestion: "Check the port points at sshd",
		}
	}
	c.Latency = time.Since(start)
	defer func() { _ = conn.Close() }()

	msg := fmt.Sprintf("%s (%s) %s", c.HostName, c.Address, c.Latency.Round(time.Millisecond))
	if v, ok := conn.(interface{ ServerVersion() string }); ok {
		msg += ", " + v.ServerVersion()
	}
	return CheckResult{Status: StatusPass, Message: msg}
}

func (c *HostReachableCheck) Fix() error { return nil }

// NewHostsChecks creates reachability checks for all configured hosts.
func NewHostsChecks(cfg *config.Config, transport session.Transport) []Check {
	names := cfg.HostNames()
	checks := make([]Check, 0, len(names))
	for _, name := range names {
		checks = append(checks, &HostReachableCheck{
			HostName:  name,
			Address:   cfg.Hosts[name].Address,
			Transport: transport,
			Timeout:   cfg.ProbeTimeout,
		})
	}
	return checks
}

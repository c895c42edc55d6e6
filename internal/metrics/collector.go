// Package metrics counts relay activity in Prometheus exposition format
// without pulling in the prometheus/client_golang dependency; the handful
// of counters here does not justify it.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Collector holds the relay's counters.
type Collector struct {
	startTime time.Time

	MessagesSeen      *Counter
	MessagesForwarded *Counter
	MessagesDeleted   *Counter
	ExecFailures      *Counter
	ReplayProcessed   *Counter
	ReplayDeleted     *Counter
}

func NewCollector() *Collector {
	return &Collector{
		startTime:         time.Now(),
		MessagesSeen:      &Counter{name: "gravbot_messages_seen_total", help: "Messages observed in routed channels"},
		MessagesForwarded: &Counter{name: "gravbot_messages_forwarded_total", help: "Messages accepted by the notes CLI"},
		MessagesDeleted:   &Counter{name: "gravbot_messages_deleted_total", help: "Source messages deleted after forwarding"},
		ExecFailures:      &Counter{name: "gravbot_exec_failures_total", help: "Notes CLI invocations that failed"},
		ReplayProcessed:   &Counter{name: "gravbot_replay_processed_total", help: "Backlog messages processed during history sync"},
		ReplayDeleted:     &Counter{name: "gravbot_replay_deleted_total", help: "Backlog messages deleted during history sync"},
	}
}

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Render returns all counters in Prometheus text format.
func (c *Collector) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# HELP gravbot_uptime_seconds Time since start in seconds\n")
	fmt.Fprintf(&sb, "# TYPE gravbot_uptime_seconds gauge\n")
	fmt.Fprintf(&sb, "gravbot_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

	for _, ctr := range []*Counter{
		c.MessagesSeen,
		c.MessagesForwarded,
		c.MessagesDeleted,
		c.ExecFailures,
		c.ReplayProcessed,
		c.ReplayDeleted,
	} {
		fmt.Fprintf(&sb, "# HELP %s %s\n", ctr.name, ctr.help)
		fmt.Fprintf(&sb, "# TYPE %s counter\n", ctr.name)
		fmt.Fprintf(&sb, "%s %d\n", ctr.name, ctr.Value())
	}

	return sb.String()
}

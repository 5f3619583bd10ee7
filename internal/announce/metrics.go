package announce

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-discovery/internal/infrastructure/influxdb"
)

// metricsPayload is the JSON shape published on the metrics topic.
type metricsPayload struct {
	ServiceID        string `json:"service_id"`
	BeaconsTx        uint64 `json:"beacons_tx"`
	ResponsesRx      uint64 `json:"responses_rx"`
	ParseFailures    uint64 `json:"parse_failures"`
	DevicesMatched   uint64 `json:"devices_matched"`
	DispatchDropped  uint64 `json:"dispatch_dropped"`
	ActiveDirectives int    `json:"active_directives"`
	Timestamp        string `json:"timestamp"`
}

// metricsLoop publishes engine counters every MetricsInterval until stopped.
func (a *Announcer) metricsLoop(stop chan struct{}) {
	defer a.metricsWG.Done()

	ticker := time.NewTicker(a.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.publishMetrics()
		}
	}
}

// publishMetrics sends one counter snapshot, retained so dashboards joining
// late see the last known state.
func (a *Announcer) publishMetrics() {
	stats := a.engine.Stats()

	payload := metricsPayload{
		ServiceID:        a.cfg.ServiceID,
		BeaconsTx:        stats.BeaconsTx,
		ResponsesRx:      stats.ResponsesRx,
		ParseFailures:    stats.ParseFailures,
		DevicesMatched:   stats.DevicesMatched,
		DispatchDropped:  stats.DispatchDropped,
		ActiveDirectives: stats.ActiveDirectives,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		a.logError("metrics payload marshal failed", err)
		return
	}

	if err := a.publisher.Publish(a.topics.Metrics(), data, a.cfg.QoS, true); err != nil {
		a.logWarn("metrics publish failed", "error", err)
	}

	if a.sink != nil {
		a.sink.WriteEngineStats(a.cfg.ServiceID, influxdb.EngineStats{
			BeaconsTx:        stats.BeaconsTx,
			ResponsesRx:      stats.ResponsesRx,
			ParseFailures:    stats.ParseFailures,
			DevicesMatched:   stats.DevicesMatched,
			DispatchDropped:  stats.DispatchDropped,
			ActiveDirectives: stats.ActiveDirectives,
		})
	}
}

package announce

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-discovery/internal/discovery"
)

// Command actions accepted on the command topic.
const (
	actionStart = "start"
	actionStop  = "stop"
)

// command is the JSON shape expected on graylogic/discovery/command.
//
// device_type is optional: when empty the action applies to every configured
// device type.
type command struct {
	Action     string `json:"action"`
	DeviceType string `json:"device_type,omitempty"`
}

// handleCommand processes one command message. Malformed payloads and unknown
// actions are logged and dropped; they never fail the subscription.
func (a *Announcer) handleCommand(topic string, payload []byte) error {
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		a.logWarn("malformed command dropped", "topic", topic, "error", err)
		return nil
	}

	switch cmd.Action {
	case actionStart:
		return a.applyStart(cmd.DeviceType)
	case actionStop:
		return a.applyStop(cmd.DeviceType)
	default:
		a.logWarn("unknown command action dropped", "action", cmd.Action)
		return nil
	}
}

// applyStart registers directives for the named device type, or for every
// configured type when the name is empty. Already-running directives are
// left alone.
func (a *Announcer) applyStart(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	types, err := a.resolveTypes(name)
	if err != nil {
		a.logWarn("start command rejected", "device_type", name, "error", err)
		return nil
	}

	for _, deviceType := range types {
		if err := a.startDirectiveLocked(deviceType); err != nil {
			a.logError("start command failed", err)
			return err
		}
	}

	a.logInfo("start command applied", "device_type", name, "active", len(a.handles))
	return nil
}

// applyStop removes directives for the named device type, or all of them when
// the name is empty. Types with no running directive are a no-op.
func (a *Announcer) applyStop(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}

	if name == "" {
		a.stopAllLocked()
		a.logInfo("stop command applied, all directives removed")
		return nil
	}

	deviceType := discovery.DeviceType(name)
	handle, ok := a.handles[deviceType]
	if !ok {
		a.logWarn("stop command for inactive device type", "device_type", name)
		return nil
	}

	a.engine.StopDiscovery(handle)
	delete(a.handles, deviceType)
	a.logInfo("stop command applied", "device_type", name, "active", len(a.handles))
	return nil
}

// resolveTypes maps a command's device_type field onto the types to act on.
// An empty name means every configured type; a named type must be one the
// daemon was configured with.
func (a *Announcer) resolveTypes(name string) ([]discovery.DeviceType, error) {
	if name == "" {
		types := make([]discovery.DeviceType, 0, len(a.cfg.DeviceTypes))
		for _, configured := range a.cfg.DeviceTypes {
			types = append(types, discovery.DeviceType(configured))
		}
		return types, nil
	}

	for _, configured := range a.cfg.DeviceTypes {
		if configured == name {
			return []discovery.DeviceType{discovery.DeviceType(name)}, nil
		}
	}
	return nil, fmt.Errorf("announce: device type %q not configured", name)
}

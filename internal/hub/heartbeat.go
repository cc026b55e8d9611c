package hub

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// RunHeartbeat supervises connection liveness until ctx is done. Each sweep
// terminates connections that produced no traffic since the previous sweep,
// then clears the flag and pings the survivors. Any inbound frame or pong
// restores the flag, so a connection is only dropped after missing a full
// interval.
func (h *Hub) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	h.logger.Info("heartbeat supervisor started", "interval", h.cfg.HeartbeatInterval)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat supervisor stopped")
			return
		case <-ticker.C:
			h.sweepConns()
		}
	}
}

func (h *Hub) sweepConns() {
	for _, c := range h.connSnapshot() {
		if !c.IsAlive() {
			h.logger.Info("heartbeat timeout", "socket", c.id, "user", c.UserID())
			c.Terminate(websocket.ClosePolicyViolation, "heartbeat timeout")
			continue
		}
		c.clearAlive()
		if err := c.sendPing(); err != nil {
			h.logger.Debug("heartbeat ping failed", "socket", c.id, "error", err)
		}
	}
}

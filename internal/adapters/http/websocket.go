package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/ports"
	"github.com/samirrijal/skywatch/internal/core/usecases"
	"github.com/samirrijal/skywatch/internal/pkg/metrics"
)

// PushInterval is how often a subscribed client receives a fresh snapshot.
const PushInterval = time.Minute

// wsClientIPKey holds the client IP captured before the upgrade.
const wsClientIPKey = "ws_client_ip"

// wsMessage is sent from client to subscribe/unsubscribe to snapshots.
type wsMessage struct {
	Action string   `json:"action"` // "subscribe" | "unsubscribe"
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	TZ     string   `json:"tz"`
}

type wsEvent struct {
	Type     string                    `json:"type"`
	Session  string                    `json:"session"`
	Snapshot *domain.CelestialSnapshot `json:"snapshot,omitempty"`
	Status   string                    `json:"status,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

// WebSocketHandler streams snapshots for one subscribed point per
// connection. Clients send
// {"action":"subscribe","lat":36.85,"lon":-75.97,"tz":"America/New_York"}
// and receive a snapshot immediately and then every PushInterval.
// Subscribing again replaces the point.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session := uuid.NewString()
		logger := slog.Default().With("session", session, "remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		logger.Info("ws client connected")

		var mu sync.Mutex
		writeJSON := func(ev wsEvent) error {
			ev.Session = session
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ip, _ := c.Locals(wsClientIPKey).(string)

		var (
			streams sync.WaitGroup
			current context.CancelFunc
		)
		unsubscribe := func() {
			if current != nil {
				current()
				current = nil
			}
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if m.Lat == nil || m.Lon == nil {
					_ = writeJSON(wsEvent{Type: "error", Error: "lat and lon are required"})
					continue
				}
				point, err := domain.NewGeoPoint(*m.Lat, *m.Lon)
				if err != nil {
					_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
					continue
				}
				if m.TZ != "" {
					if _, err := time.LoadLocation(m.TZ); err != nil {
						_ = writeJSON(wsEvent{Type: "error", Error: "unknown timezone " + m.TZ})
						continue
					}
				}

				if !subscribeAllowed(ctx, deps.Limiter, ip, logger) {
					_ = writeJSON(wsEvent{Type: "error", Error: "too many requests, please try again later"})
					continue
				}

				unsubscribe()
				subCtx, cancelSub := context.WithCancel(ctx)
				current = cancelSub
				_ = writeJSON(wsEvent{Type: "status", Status: "subscribed"})
				streams.Add(1)
				go func() {
					defer streams.Done()
					streamSnapshots(subCtx, deps, point, m.TZ, writeJSON, logger)
				}()

			case "unsubscribe":
				unsubscribe()
				_ = writeJSON(wsEvent{Type: "status", Status: "unsubscribed"})

			default:
				_ = writeJSON(wsEvent{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		unsubscribe()
		cancel()
		streams.Wait()
		logger.Info("ws client disconnected")
	}
}

// subscribeAllowed charges one subscribe against the client's celestial
// quota, since each one computes a snapshot. Limiter errors fail open.
func subscribeAllowed(ctx context.Context, limiter ports.RateLimiter, ip string, logger *slog.Logger) bool {
	if limiter == nil {
		return true
	}
	d, err := limiter.Allow(ctx, "celestial:"+ip)
	if err != nil {
		logger.Warn("rate limiter unavailable, admitting subscribe", "error", err)
		return true
	}
	if !d.Allowed {
		metrics.RateLimitRejections.WithLabelValues("celestial").Inc()
	}
	return d.Allowed
}

// streamSnapshots pushes one snapshot now and one per PushInterval until
// ctx is done or a write fails.
func streamSnapshots(ctx context.Context, deps *Dependencies, point domain.GeoPoint, tz string, write func(wsEvent) error, logger *slog.Logger) {
	clock := deps.clock()
	push := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, deps.timeout())
		defer cancel()

		req := domain.ObservationRequest{Point: point, Instant: clock.Now().UTC(), Timezone: tz}
		snap, _, err := deps.Sky.Snapshot(reqCtx, req, usecases.SnapshotOptions{})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			logger.Warn("ws snapshot failed", "error", err)
			return write(wsEvent{Type: "error", Error: err.Error()})
		}
		return write(wsEvent{Type: "snapshot", Snapshot: snap})
	}

	if err := push(); err != nil {
		return
	}
	ticker := clock.NewTicker(PushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := push(); err != nil {
				return
			}
		}
	}
}

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/coop-console/internal/api/dto"
	"github.com/spec-kit/coop-console/internal/domain"
	"github.com/spec-kit/coop-console/internal/session"
)

const sseHeartbeat = 15 * time.Second

// SessionHandler exposes the session view of the requesting browser.
type SessionHandler struct {
	sessions *session.Factory
	done     <-chan struct{}
	logger   *zap.Logger
}

// NewSessionHandler constructs handler. Streams end when done closes.
func NewSessionHandler(sessions *session.Factory, done <-chan struct{}, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, done: done, logger: logger}
}

// Current handles GET /session.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	cid, err := clientID(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(h.sessions.Resolve(c.UserContext(), cid))})
}

// Stream handles GET /session/events. It mounts a hook for the client and
// pushes one "session" event initially and after every change.
func (h *SessionHandler) Stream(c *fiber.Ctx) error {
	cid, err := clientID(c)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	hook := h.sessions.NewHook(cid)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		h.stream(w, cid, hook)
	})
	return nil
}

func (h *SessionHandler) stream(w *bufio.Writer, cid domain.ClientID, hook *session.Hook) {
	hook.Mount(context.Background())
	defer hook.Close()

	select {
	case <-hook.Changes():
	default:
	}
	if err := writeSessionEvent(w, hook.State()); err != nil {
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-hook.Changes():
			if err := writeSessionEvent(w, hook.State()); err != nil {
				h.logger.Debug("session stream closed", zap.String("client_id", string(cid)), zap.Error(err))
				return
			}
		case <-heartbeat.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSessionEvent(w *bufio.Writer, s domain.Session) error {
	payload, err := json.Marshal(dto.NewSessionResponse(s))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"familytree_go/internal/middleware"
	"familytree_go/internal/model"
	"familytree_go/internal/service"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The token already gates the upgrade; the feed is same-user data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler streams the full member set to a client on every change, the
// realtime half of the store boundary. The first snapshot must arrive
// within the load timeout or the client gets a timeout frame instead of a
// connection that hangs.
type WSHandler struct {
	family      *service.FamilyService
	loadTimeout time.Duration
	logger      *zap.Logger
}

// NewWSHandler creates the handler.
func NewWSHandler(family *service.FamilyService, loadTimeout time.Duration, logger *zap.Logger) *WSHandler {
	return &WSHandler{family: family, loadTimeout: loadTimeout, logger: logger}
}

type wsFrame struct {
	Members []model.Member `json:"members"`
	Error   string         `json:"error,omitempty"`
}

// Serve upgrades the connection and forwards snapshots until the client
// disconnects.
func (h *WSHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	uid := middleware.UID(c)
	snapshots := make(chan []model.Member, 8)
	errs := make(chan error, 1)

	unsubscribe, err := h.family.Subscribe(c.Request.Context(), uid,
		func(members []model.Member) {
			select {
			case snapshots <- members:
			default:
				// Client is slow; it will catch up on the next snapshot
				// since every frame carries the full set.
			}
		},
		func(subErr error) {
			select {
			case errs <- subErr:
			default:
			}
		})
	if err != nil {
		h.writeFrame(conn, wsFrame{Error: err.Error()})
		return
	}
	defer unsubscribe()

	// Drain client messages so pings and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	firstDeadline := time.NewTimer(h.loadTimeout)
	defer firstDeadline.Stop()
	first := true

	for {
		var timeout <-chan time.Time
		if first {
			timeout = firstDeadline.C
		}
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-timeout:
			h.writeFrame(conn, wsFrame{Error: "timed out waiting for family data"})
			return
		case subErr := <-errs:
			h.writeFrame(conn, wsFrame{Error: subErr.Error()})
			return
		case members := <-snapshots:
			first = false
			if !h.writeFrame(conn, wsFrame{Members: members}) {
				return
			}
		}
	}
}

func (h *WSHandler) writeFrame(conn *websocket.Conn, frame wsFrame) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return false
	}
	return true
}

package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"linecount/internal/linecount"
)

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchWSInbound struct {
	Type string `json:"type"`
}

// watchWSOutbound is sent as-is for control messages. Snapshot messages
// carry the flattened report in Snapshot.
type watchWSOutbound struct {
	Type     string         `json:"type"`
	Kind     string         `json:"kind,omitempty"`
	Message  string         `json:"message,omitempty"`
	Snapshot map[string]any `json:"-"`
}

func (o watchWSOutbound) MarshalJSON() ([]byte, error) {
	body := map[string]any{"type": o.Type}
	for k, v := range o.Snapshot {
		body[k] = v
	}
	if o.Kind != "" {
		body["kind"] = o.Kind
	}
	if o.Message != "" {
		body["message"] = o.Message
	}
	return json.Marshal(body)
}

// HandleWatch streams snapshots over a websocket. Clients may send
// {"type":"refresh"} to trigger an aggregation and {"type":"ping"}.
func (h *LineCountHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	writeCh := make(chan watchWSOutbound, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		for snap := range h.svc.Subscribe(ctx) {
			body, err := h.snapshotBody(snap)
			if err != nil {
				log.Printf("watch ws encode snapshot failed: %v", err)
				continue
			}
			pushWatchWS(ctx, writeCh, watchWSOutbound{Type: "snapshot", Snapshot: body})
		}
	}()

	for {
		var in watchWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch msgType := strings.ToLower(strings.TrimSpace(in.Type)); msgType {
		case "ping":
			pushWatchWS(ctx, writeCh, watchWSOutbound{Type: "pong"})
		case "refresh":
			// The resulting snapshot reaches this client through Subscribe.
			go func() {
				if _, err := h.svc.Count(ctx); err != nil && ctx.Err() == nil {
					pushWatchWS(ctx, writeCh, watchWSOutbound{
						Type:    "error",
						Kind:    string(linecount.KindOf(err)),
						Message: errorMessage(err),
					})
				}
			}()
		case "":
			pushWatchWS(ctx, writeCh, watchWSOutbound{Type: "error", Message: "type is required"})
		default:
			pushWatchWS(ctx, writeCh, watchWSOutbound{Type: "error", Message: "unsupported type: " + msgType})
		}
	}
}

func pushWatchWS(ctx context.Context, writeCh chan watchWSOutbound, out watchWSOutbound) {
	select {
	case writeCh <- out:
	case <-ctx.Done():
	}
}

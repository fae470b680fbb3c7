package rpc

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/enitrat/cairo-wasm/internal/gateway/textapi"

	"github.com/gorilla/websocket"
)

const (
	gatewayWSWriteWait = 10 * time.Second
	gatewayWSPongWait  = 60 * time.Second
	gatewayWSPingEvery = (gatewayWSPongWait * 9) / 10
	gatewayWSReadLimit = 8 << 20
)

var gatewayWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type gatewayWSInbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Request json.RawMessage `json:"request,omitempty"`
}

type gatewayWSOutbound struct {
	Type     string          `json:"type"`
	ID       string          `json:"id,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// HandleGatewayWS serves gateway calls over a websocket. Each inbound frame
// names the call in "type"; the reply echoes "id" so clients can pipeline.
func (h *GatewayHandler) HandleGatewayWS(w http.ResponseWriter, r *http.Request) {
	conn, err := gatewayWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(gatewayWSReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(gatewayWSPongWait)); err != nil {
		log.Printf("gateway ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(gatewayWSPongWait))
	})

	writeCh := make(chan gatewayWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(gatewayWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(gatewayWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(gatewayWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in gatewayWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		msgType := strings.ToLower(strings.TrimSpace(in.Type))
		switch msgType {
		case "":
			pushGatewayWS(ctx, writeCh, gatewayWSOutbound{
				Type:    "error",
				ID:      in.ID,
				Code:    "invalid_argument",
				Message: "type is required",
			})
		case "ping":
			pushGatewayWS(ctx, writeCh, gatewayWSOutbound{Type: "pong", ID: in.ID})
		default:
			res, err := h.invoke(ctx, textapi.Call(msgType), in.Request)
			if err != nil {
				pushGatewayWS(ctx, writeCh, gatewayWSOutbound{
					Type:    "error",
					ID:      in.ID,
					Code:    "invalid_argument",
					Message: err.Error(),
				})
				continue
			}
			pushGatewayWS(ctx, writeCh, gatewayWSOutbound{
				Type:     "result",
				ID:       in.ID,
				Kind:     string(res.Call),
				Response: res.Response,
			})
		}
	}
}

func pushGatewayWS(ctx context.Context, ch chan<- gatewayWSOutbound, out gatewayWSOutbound) {
	select {
	case ch <- out:
	case <-ctx.Done():
	}
}

package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/msto63/dglrechner/internal/normalize"
	"github.com/msto63/dglrechner/internal/render"
	"github.com/msto63/dglrechner/pkg/core/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const wsReadTimeout = 120 * time.Second

// PreviewSocket streams live previews: every "input" message is answered
// with the normalized and rendered form of its text
type PreviewSocket struct {
	renderer render.Renderer
	logger   *logging.Logger
}

// NewPreviewSocket creates the live preview handler
func NewPreviewSocket(renderer render.Renderer, logger *logging.Logger) *PreviewSocket {
	if renderer == nil {
		renderer = render.NewTextRenderer(logger)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &PreviewSocket{renderer: renderer, logger: logger}
}

// WSMessage is a client message
type WSMessage struct {
	Type    string          `json:"type"` // "input", "ping"
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSInputPayload carries the editor content. Seq is echoed so clients can
// drop previews that arrive after a newer one.
type WSInputPayload struct {
	Text string `json:"text"`
	Seq  uint64 `json:"seq,omitempty"`
}

// WSResponse is a server message
type WSResponse struct {
	Type    string      `json:"type"` // "preview", "pong", "error"
	Payload interface{} `json:"payload,omitempty"`
}

// WSPreviewPayload is the preview of one input
type WSPreviewPayload struct {
	Session   string `json:"session"`
	Seq       uint64 `json:"seq,omitempty"`
	Canonical string `json:"canonical"`
	Markup    string `json:"markup"`
	Text      string `json:"text"`
	PNG       string `json:"png,omitempty"` // base64
	Empty     bool   `json:"empty"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeHTTP handles WebSocket upgrade and connections
func (p *PreviewSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	p.handleConnection(conn)
}

// handleConnection answers messages in order, so previews never overtake
// each other on one connection
func (p *PreviewSocket) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	session := uuid.New().String()
	log := p.logger.With("session", session)
	log.Debug("WebSocket connection established", "remote", conn.RemoteAddr().String())

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", "error", err)
			} else {
				log.Debug("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			p.send(conn, log, WSResponse{Type: "pong"})

		case "input":
			var in WSInputPayload
			if err := json.Unmarshal(msg.Payload, &in); err != nil {
				p.sendError(conn, log, "INVALID_INPUT", "invalid input payload")
				continue
			}
			p.send(conn, log, WSResponse{Type: "preview", Payload: p.preview(session, in)})

		default:
			p.sendError(conn, log, "INVALID_INPUT", "unknown message type: "+msg.Type)
		}
	}
}

func (p *PreviewSocket) preview(session string, in WSInputPayload) WSPreviewPayload {
	canonical := normalize.Normalize(in.Text)
	markup := render.Typeset(canonical)
	v := p.renderer.Render(markup)

	out := WSPreviewPayload{
		Session:   session,
		Seq:       in.Seq,
		Canonical: canonical,
		Markup:    markup,
		Text:      v.Text,
		Empty:     v.Empty(),
	}
	if len(v.PNG) > 0 {
		out.PNG = base64.StdEncoding.EncodeToString(v.PNG)
	}
	return out
}

func (p *PreviewSocket) send(conn *websocket.Conn, log *logging.Logger, resp WSResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Warn("WebSocket send error", "error", err)
	}
}

func (p *PreviewSocket) sendError(conn *websocket.Conn, log *logging.Logger, code, message string) {
	p.send(conn, log, WSResponse{
		Type: "error",
		Payload: WSErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

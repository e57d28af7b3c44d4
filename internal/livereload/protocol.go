package livereload

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"git.home.luguber.info/inful/themebuilder/internal/logfields"
)

// ProtocolV7 is the LiveReload protocol this server speaks.
const ProtocolV7 = "http://livereload.com/protocols/official-7"

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

type hello struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols"`
	ServerName string   `json:"serverName"`
}

type reload struct {
	Command string `json:"command"`
	Path    string `json:"path"`
	LiveCSS bool   `json:"liveCSS"`
}

func newReload(path string) reload {
	return reload{Command: "reload", Path: path, LiveCSS: true}
}

var upgrader = websocket.Upgrader{
	HandshakeTimeout: handshakeTimeout,
	CheckOrigin:      func(*http.Request) bool { return true },
}

// serveWebSocket speaks the LiveReload protocol: the client says hello
// with its protocols, the server answers hello and then sends a reload
// command per change.
func (h *Hub) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("Live-reload upgrade failed", logfields.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	if err := handshake(conn); err != nil {
		slog.Debug("Live-reload handshake failed", logfields.Error(err))
		return
	}

	c := h.register("websocket")
	if c == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		return
	}
	defer h.remove(c.id)

	// Reader: drains client frames and notices disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			switch cmd := gjson.GetBytes(msg, "command").String(); cmd {
			case "info", "hello":
			default:
				slog.Debug("Live-reload unknown command", slog.String("command", cmd))
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeTimeout))
			return
		case path := <-c.ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(newReload(path)); err != nil {
				slog.Debug("Live-reload frame write failed", logfields.Error(err))
				return
			}
		}
	}
}

func handshake(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if gjson.GetBytes(msg, "command").String() != "hello" {
			continue
		}
		supported := false
		gjson.GetBytes(msg, "protocols").ForEach(func(_, v gjson.Result) bool {
			supported = v.String() == ProtocolV7
			return !supported
		})
		if !supported {
			return errUnsupportedProtocol
		}
		break
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(hello{
		Command:    "hello",
		Protocols:  []string{ProtocolV7},
		ServerName: "themebuilder",
	})
}

package wbe

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wbe-dev/wbe/paint"
)

// DevtoolsServer is the one GUI surface this repo ships: an HTTP
// server handing out a canvas page, and a WebSocket endpoint pushing
// the paint-command list whenever a page loads or a scroll/configure
// event is applied. Grounded on the teacher's pages.go ServeHTTP/
// servePage websocket render loop, generalized from "re-render a CHTML
// component on scope change" to "re-paint a document on reflow/scroll".
type DevtoolsServer struct {
	Engine *Engine
}

// NewDevtoolsServer builds a DevtoolsServer bound to e.
func NewDevtoolsServer(e *Engine) *DevtoolsServer {
	return &DevtoolsServer{Engine: e}
}

var devtoolsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ListenAndServe blocks serving the devtools shell until ctx is
// cancelled.
func (s *DevtoolsServer) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveShell)
	mux.HandleFunc("/ws", s.serveWS)

	srv := &http.Server{Addr: s.Engine.Config.DevtoolsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	s.Engine.Logger.Info("devtools listening", "addr", srv.Addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *DevtoolsServer) serveShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, devtoolsShellHTML)
}

// devtoolsMessage is one incoming control message from the canvas
// shell's JS: load a new URL, scroll by a delta, or reflow at a new
// width.
type devtoolsMessage struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Delta int    `json:"delta,omitempty"`
	Width int    `json:"width,omitempty"`
}

// devtoolsFrame is what the shell pushes back after every applied
// event: the culled, JSON-serializable display list plus scroll
// bounds for the canvas to size itself against.
type devtoolsFrame struct {
	Commands []paint.Command `json:"commands"`
	Height   int             `json:"height"`
	Scroll   int             `json:"scroll"`
	Error    string          `json:"error,omitempty"`
}

func (s *DevtoolsServer) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := devtoolsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Engine.Logger.Error("devtools upgrade", "error", err)
		return
	}
	defer ws.Close()

	var page *Page

	for {
		var msg devtoolsMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Engine.Logger.Warn("devtools read", "error", err)
			}
			return
		}

		var loadErr error
		switch msg.Type {
		case "load":
			page, loadErr = s.Engine.Load(r.Context(), msg.URL)
		case "scroll":
			if page != nil {
				s.Engine.Scroll(page, msg.Delta)
			}
		case "configure":
			if page != nil && msg.Width > 0 {
				s.Engine.Reflow(page, msg.Width)
			}
		}

		frame := devtoolsFrame{}
		if loadErr != nil {
			frame.Error = loadErr.Error()
		} else if page != nil {
			frame.Commands = s.Engine.Visible(page)
			frame.Height = page.Doc.Height
			frame.Scroll = page.Scroll
		}

		if err := ws.WriteJSON(frame); err != nil {
			return
		}
	}
}

// devtoolsShellHTML is a minimal canvas renderer: it draws the
// commands a devtools frame sends over the websocket. No layout or
// parsing logic lives in it — the one GUI surface this repo ships is
// kept deliberately thin.
const devtoolsShellHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>wbe devtools</title></head>
<body>
<canvas id="c" width="800" height="600" style="border:1px solid #ccc"></canvas>
<script>
const canvas = document.getElementById("c");
const ctx = canvas.getContext("2d");
const ws = new WebSocket("ws://" + location.host + "/ws");

ws.onmessage = (ev) => {
  const frame = JSON.parse(ev.data);
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  if (frame.error) { console.error(frame.error); return; }
  for (const cmd of (frame.commands || [])) {
    if (cmd.kind === "rect") {
      ctx.fillStyle = cmd.color;
      ctx.fillRect(cmd.left, cmd.top, cmd.right - cmd.left, cmd.bottom - cmd.top);
    } else if (cmd.kind === "text") {
      ctx.fillStyle = cmd.color;
      ctx.fillText(cmd.text, cmd.left, cmd.bottom);
    } else if (cmd.kind === "image") {
      ctx.fillStyle = "#888";
      ctx.fillRect(cmd.left, cmd.top, cmd.right - cmd.left, cmd.bottom - cmd.top);
    }
  }
};

ws.onopen = () => {
  const params = new URLSearchParams(location.search);
  const url = params.get("url");
  if (url) ws.send(JSON.stringify({type: "load", url: url}));
};

window.addEventListener("wheel", (ev) => {
  ws.send(JSON.stringify({type: "scroll", delta: ev.deltaY > 0 ? 100 : -100}));
});
</script>
</body>
</html>
`

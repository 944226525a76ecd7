package api

import (
	"log"
	"net/http"
	"time"

	"palmwatch/internal/models"
	"palmwatch/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 16
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterStreamRoutes serves the live snapshot feed on /ws. Open streams end
// when done is closed.
func RegisterStreamRoutes(r *gin.Engine, store *telemetry.Store, done <-chan struct{}) {
	r.GET("/ws", func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("API: Websocket upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		updates := make(chan models.Snapshot, streamBuffer)
		unsubscribe := store.Subscribe(func(snap models.Snapshot) {
			select {
			case updates <- snap:
			default:
				// slow client, it catches up with the next change
			}
		})
		defer unsubscribe()

		// the client sends nothing; reading only notices the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := writeSnapshot(ws, store.Snapshot()); err != nil {
			return
		}

		for {
			select {
			case snap := <-updates:
				if err := writeSnapshot(ws, snap); err != nil {
					log.Printf("API: Websocket write failed: %v", err)
					return
				}
			case <-closed:
				return
			case <-done:
				ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
		}
	})
}

func writeSnapshot(ws *websocket.Conn, snap models.Snapshot) error {
	ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ws.WriteJSON(snap)
}

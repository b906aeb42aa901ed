package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/atikulmunna/logdeck/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket runs one session for the lifetime of the connection.
// The read pump feeds commands to the session; this goroutine is the only
// writer on the connection.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := session.New(s.tailOpts, s.aggregator)
	defer sess.Close()
	s.aggregator.SessionOpened()
	defer s.aggregator.SessionClosed()

	log.Info().Str("session", sess.ID()).Str("remote", c.Request.RemoteAddr).Msg("websocket connected")

	// Read pump: decode commands until the client goes away.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Str("session", sess.ID()).Msg("websocket read failed")
				}
				return
			}
			var cmd session.Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				sess.Reject("malformed message: " + err.Error())
				continue
			}
			sess.Handle(cmd)
		}
	}()

	// Write pump.
	for {
		select {
		case <-readDone:
			path, size, active := sess.Watch()
			log.Info().
				Str("session", sess.ID()).
				Str("path", path).
				Int64("size", size).
				Bool("tailing", active).
				Msg("websocket disconnected")
			return
		case msg := <-sess.Out():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Str("session", sess.ID()).Msg("websocket write failed")
				return
			}
		}
	}
}

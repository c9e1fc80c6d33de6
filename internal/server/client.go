package server

import (
	"ascension-server/pkg/api"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и сессией рана
type Client struct {
	Server  *Server
	Conn    *websocket.Conn
	Send    chan api.ServerResponse
	live    *liveSession
	updates chan api.ServerResponse
	done    chan struct{} // закрывается, когда writePump вышел
	logger  *logrus.Entry
}

func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		Server: s,
		Conn:   conn,
		Send:   make(chan api.ServerResponse, 256),
		done:   make(chan struct{}),
		logger: s.logger.WithField("remote", conn.RemoteAddr().String()),
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		if c.live != nil {
			c.Server.hub.Unregister(c.live.session.ID, c.updates)
			c.logger.Info("Client disconnected")
		} else {
			close(c.Send)
		}
		if err := c.Conn.Close(); err != nil {
			c.logger.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. HANDSHAKE: token - id сессии для возобновления, пусто - новая сессия
	var hello api.ClientCommand
	if err := c.Conn.ReadJSON(&hello); err != nil {
		c.logger.WithError(err).Warn("Handshake failed")
		return
	}

	live, ok := c.Server.sessions.Get(hello.Token)
	if !ok {
		live = c.Server.sessions.Create(c.Server.engineCfg)
		c.logger.WithField("session_id", live.session.ID).Info("Session created")
	} else {
		c.Server.sessions.Touch(live)
		c.logger.WithField("session_id", live.session.ID).Info("Session resumed")
	}
	c.live = live
	c.logger = c.logger.WithField("session_id", live.session.ID)

	// 2. ПОДПИСКА НА ОБНОВЛЕНИЯ (ходы боя приходят из тикера)
	c.updates = c.Server.hub.Register(live.session.ID)
	go c.forward()

	// Первая отрисовка. Команда из handshake (если есть) выполняется как обычная.
	c.push(c.Server.State(live))
	if hello.Action != "" {
		c.push(c.Server.Execute(live, hello))
	}

	// 3. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		err := c.Conn.ReadJSON(&cmd)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WS error")
			}
			break
		}
		c.push(c.Server.Execute(live, cmd))
	}
}

// push отдает ответ через hub, чтобы ответы команд и ходы боя шли одной очередью
func (c *Client) push(resp api.ServerResponse) {
	c.Server.hub.SendTo(c.live.session.ID, resp)
}

// forward перекладывает обновления hub в очередь записи до отписки.
// Если писатель уже вышел, обновления вычитываются и выбрасываются.
func (c *Client) forward() {
	defer close(c.Send)
	for msg := range c.updates {
		select {
		case c.Send <- msg:
		case <-c.done:
		}
	}
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		close(c.done)
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.logger.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.logger.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

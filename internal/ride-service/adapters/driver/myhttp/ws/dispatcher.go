package ws

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/finere-dem/MaliTrans/internal/mylogger"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/wsdto"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/services"

	"github.com/gorilla/websocket"
)

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Dispatcher tracks open connections per user and fans ride events out to
// them. Identity comes from the auth middleware headers, never from the
// client payload.
type Dispatcher struct {
	mu      sync.RWMutex
	clients map[int64][]*Client
	log     mylogger.Logger
}

func NewDispatcher(log mylogger.Logger) *Dispatcher {
	return &Dispatcher{
		clients: make(map[int64][]*Client),
		log:     log,
	}
}

func (d *Dispatcher) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log.Action("wsHandler")

		userId, err := strconv.ParseInt(r.Header.Get("X-UserId"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		role := r.Header.Get("X-Role")

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade connection", err)
			return
		}

		client := NewClient(r.Context(), conn, userId, role)
		d.addClient(client)
		log.Info("websocket client connected", "user_id", userId, "role", role)

		go client.writeLoop()
		go func() {
			client.readLoop()
			d.removeClient(client)
			log.Info("websocket client disconnected", "user_id", userId)
		}()
	}
}

func (d *Dispatcher) Broadcast(event wsdto.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, conns := range d.clients {
		for _, c := range conns {
			if c.role != services.RoleDriver {
				continue
			}
			c.send(event)
		}
	}
}

func (d *Dispatcher) WriteToUser(userId int64, event wsdto.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, c := range d.clients[userId] {
		c.send(event)
	}
}

func (d *Dispatcher) addClient(client *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clients[client.userId] = append(d.clients[client.userId], client)
}

func (d *Dispatcher) removeClient(client *Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conns := d.clients[client.userId]
	for i, c := range conns {
		if c == client {
			d.clients[client.userId] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(d.clients[client.userId]) == 0 {
		delete(d.clients, client.userId)
	}
	client.close()
}

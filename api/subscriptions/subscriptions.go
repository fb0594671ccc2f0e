// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/events"
	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/thor"
)

var (
	logger = log.WithContext("pkg", "subscriptions")

	metricActiveWebsocket = metrics.LazyLoadGaugeVec("api_active_websocket_count", []string{"subject"})
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10

	// Events a subscriber may fall behind by before it is dropped.
	pendingLimit = 256
)

type Subscriptions struct {
	svc      *pool.Service
	upgrader *websocket.Upgrader
	messages *messageCache
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(svc *pool.Service, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		svc: svc,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		messages: newMessageCache(pendingLimit),
		done:     make(chan struct{}),
	}
}

// eventSelector holds the query of a pool subscription.
type eventSelector struct {
	participant *thor.Address
	kinds       map[pool.EventKind]bool
}

func parseSelector(req *http.Request) (*eventSelector, error) {
	var sel eventSelector
	query := req.URL.Query()
	if p := query.Get("participant"); p != "" {
		addr, err := thor.ParseAddress(p)
		if err != nil {
			return nil, errors.WithMessage(err, "participant")
		}
		sel.participant = &addr
	}
	if k := query.Get("kinds"); k != "" {
		sel.kinds = make(map[pool.EventKind]bool)
		for _, name := range strings.Split(k, ",") {
			kind, err := events.ParseKind(strings.TrimSpace(name))
			if err != nil {
				return nil, errors.WithMessage(err, "kinds")
			}
			sel.kinds[kind] = true
		}
	}
	return &sel, nil
}

func (s *eventSelector) match(ev *pool.Event) bool {
	if s.participant != nil && ev.Participant != *s.participant {
		return false
	}
	if s.kinds != nil && !s.kinds[ev.Kind] {
		return false
	}
	return true
}

func (s *Subscriptions) handlePoolSubject(w http.ResponseWriter, req *http.Request) error {
	sel, err := parseSelector(req)
	if err != nil {
		return utils.BadRequest(err)
	}

	s.wg.Add(1)
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	err = s.pipe(conn, sel)
	if err != nil {
		logger.Debug("pool subscription closed", "err", err)
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	} else {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	conn.Close()
	return nil
}

// pipe forwards matching pool events to conn until the peer leaves, the
// subscriber falls too far behind, or the server closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, sel *eventSelector) error {
	feed := make(chan *pool.Event, pendingLimit)
	sub := s.svc.Subscribe(feed)
	defer sub.Unsubscribe()

	metricActiveWebsocket().AddWithLabel(1, map[string]string{"subject": "pool"})
	defer metricActiveWebsocket().AddWithLabel(-1, map[string]string{"subject": "pool"})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case err := <-sub.Err():
			return err
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case ev := <-feed:
			if len(feed) == cap(feed) {
				return errors.New("subscriber too slow")
			}
			if !sel.match(ev) {
				continue
			}
			msg, _, err := s.messages.GetOrAdd(ev)
			if err != nil {
				return err
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		}
	}
}

// Close ends every open subscription and waits for the handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/pool").
		Methods(http.MethodGet).
		Name("WS /subscriptions/pool").
		HandlerFunc(utils.WrapHandlerFunc(s.handlePoolSubject))
}

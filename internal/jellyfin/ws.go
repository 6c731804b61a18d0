package jellyfin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 15 * time.Second
	wsInitialRetry     = 2 * time.Second
	wsMaxRetry         = 30 * time.Second
)

// wsEvent is the envelope for all Jellyfin socket messages
type wsEvent struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data"`
}

// userDataChanged is the payload of a UserDataChanged push
type userDataChanged struct {
	UserID       string `json:"UserId"`
	UserDataList []struct {
		ItemID     string `json:"ItemId"`
		Played     bool   `json:"Played"`
		IsFavorite bool   `json:"IsFavorite"`
	} `json:"UserDataList"`
}

// Socket listens on the Jellyfin websocket for server-pushed user-data
// changes and forwards affected item ids to a handler. It reconnects with
// exponential backoff until the context is cancelled.
type Socket struct {
	baseURL string
	token   string
	logger  *slog.Logger
	cancel  context.CancelFunc

	// Handler receives the ids of items whose user data changed
	Handler func(itemIDs []string)
}

// NewSocket creates a websocket listener for the given server
func NewSocket(baseURL, token string, logger *slog.Logger) *Socket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger,
	}
}

// dial opens the websocket connection to the server's /socket endpoint
func (s *Socket) dial() (*websocket.Conn, *http.Response, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, nil, err
	}

	scheme := "wss"
	if u.Scheme == "http" {
		scheme = "ws"
	}
	u.Scheme = scheme
	u.Path = "/socket"
	q := u.Query()
	q.Set("api_key", s.token)
	q.Set("deviceId", "homeshelf-tui-client")
	u.RawQuery = q.Encode()

	dialer := &websocket.Dialer{
		HandshakeTimeout:  wsHandshakeTimeout,
		EnableCompression: true,
	}

	header := http.Header{
		"Accept": []string{"application/json"},
	}

	s.logger.Debug("dialing jellyfin socket", "url", u.Redacted())
	return dialer.Dial(u.String(), header)
}

// Start begins the listen loop in a background goroutine
func (s *Socket) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		retry := wsInitialRetry
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			conn, _, err := s.dial()
			if err != nil {
				s.logger.Debug("socket dial failed", "error", err, "retryIn", retry)
				select {
				case <-time.After(retry):
				case <-ctx.Done():
					return
				}
				if retry < wsMaxRetry {
					retry *= 2
				}
				continue
			}
			retry = wsInitialRetry
			s.logger.Info("jellyfin socket connected")

			s.readLoop(ctx, conn)
			conn.Close()

			select {
			case <-time.After(retry):
			case <-ctx.Done():
				return
			}
		}
	}()
}

// readLoop consumes messages until the connection breaks or ctx is done
func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Close the connection when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("socket read error, reconnecting", "error", err)
			}
			return
		}

		var evt wsEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			s.logger.Debug("socket message unmarshal error", "error", err)
			continue
		}

		switch evt.MessageType {
		case "UserDataChanged":
			s.handleUserDataChanged(evt)
		case "ForceKeepAlive", "KeepAlive":
			// Heartbeat, nothing to do
		default:
			s.logger.Debug("ignoring socket event", "type", evt.MessageType)
		}
	}
}

// handleUserDataChanged extracts changed item ids and invokes the handler
func (s *Socket) handleUserDataChanged(evt wsEvent) {
	if s.Handler == nil {
		return
	}

	var change userDataChanged
	if err := json.Unmarshal(evt.Data, &change); err != nil {
		s.logger.Debug("failed to parse UserDataChanged payload", "error", err)
		return
	}

	ids := make([]string, 0, len(change.UserDataList))
	for _, ud := range change.UserDataList {
		if ud.ItemID != "" {
			ids = append(ids, ud.ItemID)
		}
	}
	if len(ids) > 0 {
		s.Handler(ids)
	}
}

// Stop tears down the listener and any open connection
func (s *Socket) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

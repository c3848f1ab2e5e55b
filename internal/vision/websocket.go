package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rorical/RoriAge/internal/config"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadTimeout      = 5 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultFetchTimeout     = 30 * time.Second
)

// webSocketBackend talks to a face analysis service that accepts binary
// frames and answers {"face_found": bool, "age": float}.
type webSocketBackend struct {
	endpoint     string
	modelBaseURL string
	manifests    []string
	httpClient   *http.Client
	dialer       *websocket.Dialer

	mu           sync.Mutex
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewWebSocketBackend(p config.Profile) (Backend, error) {
	if p.Endpoint == "" {
		return nil, fmt.Errorf("websocket: endpoint is required")
	}

	baseURL := p.ModelBaseURL
	if baseURL == "" {
		baseURL = config.DefaultModelBaseURL
	}
	manifests := p.ModelManifests
	if len(manifests) == 0 {
		manifests = config.DefaultModelManifests
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = defaultHandshakeTimeout

	return &webSocketBackend{
		endpoint:     p.Endpoint,
		modelBaseURL: baseURL,
		manifests:    manifests,
		httpClient:   &http.Client{Timeout: defaultFetchTimeout},
		dialer:       &dialer,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
	}, nil
}

func (c *webSocketBackend) Name() string { return config.ProviderWebSocket }

// Load fetches the weight manifests and opens the connection.
func (c *webSocketBackend) Load(ctx context.Context) error {
	if err := FetchModels(ctx, c.httpClient, c.modelBaseURL, c.manifests); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return nil
}

func (c *webSocketBackend) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	})

	c.conn = conn
	return nil
}

// Detect sends one frame and waits for the matching answer. Calls are
// serialized; a broken connection is redialed on the next call.
func (c *webSocketBackend) Detect(ctx context.Context, frame Frame) (*Estimate, error) {
	if len(frame.Data) == 0 {
		return nil, ErrEmptyFrame
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
		}
	}
	conn := c.conn

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return nil, c.dropLocked(err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame.Data); err != nil {
		return nil, c.dropLocked(fmt.Errorf("write frame: %w", err))
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, c.dropLocked(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, c.dropLocked(err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, c.dropLocked(fmt.Errorf("read result: %w", err))
	}

	var resp estimateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEstimate, err)
	}
	return resp.estimate()
}

func (c *webSocketBackend) dropLocked(err error) error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *webSocketBackend) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout),
	)
	err := c.conn.Close()
	c.conn = nil
	return err
}

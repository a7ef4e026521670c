package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"perp_go/internal/infra"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsPingInterval     = 30 * time.Second
	wsReadTimeout      = 60 * time.Second
)

// MidsHandler receives each allMids push, keyed by asset name.
type MidsHandler func(mids map[string]string)

// PriceStreamWorker keeps a WebSocket subscription to the venue's allMids
// channel and forwards every push to the handler. It reconnects with
// exponential backoff and stops when its context is cancelled.
type PriceStreamWorker struct {
	wsURL   string
	handler MidsHandler
	logger  *slog.Logger

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPriceStreamWorker builds a worker for the given WebSocket URL.
func NewPriceStreamWorker(wsURL string, handler MidsHandler, logger *slog.Logger) *PriceStreamWorker {
	return &PriceStreamWorker{
		wsURL:   wsURL,
		handler: handler,
		logger:  logger,
	}
}

// Connect starts the connection loop with automatic reconnection.
func (w *PriceStreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.connectionLoop(ctx)

	return nil
}

func (w *PriceStreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("price stream panic recovered", slog.Any("panic", r))
		}
	}()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("price stream connection loop stopped")
			return
		default:
		}

		// Each connection gets its own context so the ping loop dies with
		// the connection instead of piling up across reconnects.
		connCtx, connCancel := context.WithCancel(ctx)
		err := w.connect(connCtx)
		if err != nil {
			connCancel()
			w.logger.Warn("price stream connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := infra.BackoffDelay(retryCount)
			retryCount++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		w.readLoop(ctx)
		connCancel()
	}
}

func (w *PriceStreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	go w.pingLoop(ctx)

	w.logger.Info("price stream connected", slog.String("url", w.wsURL))
	return nil
}

type wsSubscribeRequest struct {
	Method       string `json:"method"`
	Subscription struct {
		Type string `json:"type"`
	} `json:"subscription"`
}

func (w *PriceStreamWorker) subscribe() error {
	req := wsSubscribeRequest{Method: "subscribe"}
	req.Subscription.Type = "allMids"

	msgBytes, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *PriceStreamWorker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

func (w *PriceStreamWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("price stream pingLoop panic recovered", slog.Any("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.TextMessage, []byte(`{"method":"ping"}`)); err != nil {
				w.logger.Warn("price stream ping failed", slog.Any("error", err))
			}
		}
	}
}

type wsMessage struct {
	Channel string `json:"channel"`
	Data    struct {
		Mids map[string]string `json:"mids"`
	} `json:"data"`
}

func (w *PriceStreamWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("price stream read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		w.handleMessage(message)
	}
}

func (w *PriceStreamWorker) handleMessage(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Channel != "allMids" || len(msg.Data.Mids) == 0 {
		return
	}

	if w.handler != nil {
		w.handler(msg.Data.Mids)
	}
}

func (w *PriceStreamWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
}

// Disconnect closes the connection and waits for the loops to exit.
func (w *PriceStreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	w.logger.Info("price stream disconnected")
}

// IsConnected reports whether a connection is currently established.
func (w *PriceStreamWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

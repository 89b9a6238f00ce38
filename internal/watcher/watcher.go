// Package watcher follows an event from a terminal: it subscribes over the
// websocket endpoint, catches up with GetEvent and re-renders shares for
// every pushed snapshot.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"

	"github.com/hppanpaliya/FairShare-AI/internal/calculator"
	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime"
	"github.com/hppanpaliya/FairShare-AI/internal/service"
)

// SnapshotFunc receives every snapshot the watcher applies, already computed.
type SnapshotFunc func(agg *models.Aggregate, shares *service.GetSharesResponse)

type Options struct {
	// MaxReconnects bounds consecutive failed dials. Zero means unlimited.
	MaxReconnects uint
	// JoinTimeout bounds the wait for the server's join acknowledgement.
	JoinTimeout time.Duration
	Dialer      *websocket.Dialer
}

// Watcher keeps a SnapshotCache current for a single event.
type Watcher struct {
	client *service.EventServiceClient
	wsURL  string
	cache  *realtime.SnapshotCache
	onSnap SnapshotFunc
	opts   Options
}

// New creates a watcher against a server base URL such as http://localhost:8080.
func New(baseURL string, client *service.EventServiceClient, onSnap SnapshotFunc, opts Options) (*Watcher, error) {
	wsURL, err := WebsocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = 10 * time.Second
	}
	if onSnap == nil {
		onSnap = func(*models.Aggregate, *service.GetSharesResponse) {}
	}
	return &Watcher{
		client: client,
		wsURL:  wsURL,
		cache:  realtime.NewSnapshotCache(),
		onSnap: onSnap,
		opts:   opts,
	}, nil
}

// WebsocketURL maps an http(s) base URL to the server's ws(s) endpoint.
func WebsocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Cache exposes the snapshots the watcher has applied.
func (w *Watcher) Cache() *realtime.SnapshotCache { return w.cache }

// Run follows eventID until ctx is cancelled, reconnecting on dropped
// connections. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, eventID string) error {
	for {
		conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
			return w.subscribe(ctx, eventID)
		},
			backoff.WithBackOff(backoff.NewExponentialBackOff()),
			backoff.WithMaxTries(w.opts.MaxReconnects),
			backoff.WithMaxElapsedTime(0),
			backoff.WithNotify(func(err error, next time.Duration) {
				slog.Warn("Watch connection failed, retrying", "event_id", eventID, "retry_in", next, "error", err)
			}),
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = w.follow(ctx, conn, eventID)
		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("Watch connection dropped, reconnecting", "event_id", eventID, "error", err)
	}
}

// subscribe dials, joins the event and applies a fresh GetEvent snapshot.
// Joining first means no update committed after the catch-up read is missed.
func (w *Watcher) subscribe(ctx context.Context, eventID string) (*websocket.Conn, error) {
	conn, _, err := w.opts.Dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.wsURL, err)
	}
	if err := w.join(conn, eventID); err != nil {
		conn.Close()
		return nil, err
	}

	resp, err := w.client.GetEvent(ctx, connect.NewRequest(&service.GetEventRequest{EventID: eventID}))
	if err != nil {
		conn.Close()
		if connect.CodeOf(err) == connect.CodeNotFound || connect.CodeOf(err) == connect.CodeInvalidArgument {
			w.cache.Forget(eventID)
			return nil, backoff.Permanent(fmt.Errorf("event %s: %w", eventID, err))
		}
		return nil, fmt.Errorf("catch up: %w", err)
	}
	agg := resp.Msg.Aggregate
	w.apply(&agg)
	return conn, nil
}

func (w *Watcher) join(conn *websocket.Conn, eventID string) error {
	if err := conn.WriteJSON(realtime.ClientFrame{Action: realtime.ActionJoin, EventID: eventID}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(w.opts.JoinTimeout))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("await join: %w", err)
		}
		switch msg.Type {
		case realtime.TypeJoined:
			if msg.EventID == eventID {
				return nil
			}
		case realtime.TypeError:
			return backoff.Permanent(fmt.Errorf("join rejected: %s", msg.Error))
		}
	}
}

func (w *Watcher) follow(ctx context.Context, conn *websocket.Conn, eventID string) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		switch msg.Type {
		case realtime.TypeEventUpdated:
			if msg.Snapshot == nil || msg.Snapshot.Event.ID != eventID {
				continue
			}
			w.apply(msg.Snapshot)
		case realtime.TypeError:
			slog.Warn("Server reported error", "event_id", eventID, "error", msg.Error)
		}
	}
}

func (w *Watcher) apply(agg *models.Aggregate) {
	w.cache.Put(agg)
	res := calculator.CalculateSplit(agg.Items, agg.People, calculator.PolicyFor(agg.Event))
	w.onSnap(agg, service.BuildShares(agg, res))
}

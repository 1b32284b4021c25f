package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"btc-lending-backend/pkg/id"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderUserID    = "Ax-User-Id"
	// HeaderReplayed is set on responses served from the store.
	HeaderReplayed = "Idempotent-Replayed"
)

type Options struct {
	// TTL is how long a finished response keeps being replayed.
	TTL    time.Duration
	Prefix string
	// Hold bounds an in-progress claim whose handler never finished.
	Hold    time.Duration
	MaxSkew time.Duration
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Minute
	}
	if o.Prefix == "" {
		o.Prefix = "idemp:"
	}
	if o.Hold <= 0 {
		o.Hold = time.Minute
	}
	if o.MaxSkew <= 0 {
		o.MaxSkew = 10 * time.Minute
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// teeWriter copies the response body while it is streamed to the client.
type teeWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// Idempotency guards mutating requests keyed by method, route, Ax-User-Id and
// Ax-Request-Id. A repeated request replays the stored response; the same id
// with a different body is a conflict. 4xx outcomes change nothing, so their
// key is released and the id may be reused with a corrected body.
func Idempotency(rdb redis.UniversalClient, opts Options) echo.MiddlewareFunc {
	o := opts.withDefaults()
	st := store{rdb: rdb, hold: o.Hold}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			raw := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if raw == "" {
				return reject(c, http.StatusBadRequest, "missing "+HeaderRequestID)
			}
			reqID, ok := id.Normalize(raw)
			if !ok {
				return reject(c, http.StatusBadRequest, "invalid "+HeaderRequestID+" format")
			}

			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, err.Error())
			}
			now := o.Now()
			if reqAt.Before(now.Add(-o.MaxSkew)) || reqAt.After(now.Add(o.MaxSkew)) {
				return reject(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}

			userID := strings.TrimSpace(req.Header.Get(HeaderUserID))
			if !id.Valid(userID) {
				return reject(c, http.StatusBadRequest, "missing or invalid "+HeaderUserID)
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := o.key(req.Method, c.Path(), userID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			claimed, err := st.claim(ctx, key, entry{
				InProgress:  true,
				BodySHA256:  hash,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   now,
			})
			if err != nil {
				slog.Error("idempotency: claim failed", "key", key, "error", err)
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !claimed {
				cur, found, err := st.load(ctx, key)
				if err != nil {
					slog.Warn("idempotency: load entry failed", "key", key, "error", err)
				}
				if found && cur.BodySHA256 != hash {
					return reject(c, http.StatusConflict, HeaderRequestID+" reused with different body")
				}
				if found && cur.replayable() {
					ct := cur.ContentType
					if ct == "" {
						ct = echo.MIMEApplicationJSONCharsetUTF8
					}
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(cur.Code, ct, cur.Body)
				}
				return reject(c, http.StatusConflict, "request is already in progress")
			}

			tee := &teeWriter{ResponseWriter: c.Response().Writer}
			c.Response().Writer = tee
			if err := next(c); err != nil {
				c.Error(err)
			}

			code := c.Response().Status
			sctx := context.WithoutCancel(req.Context())
			if code >= 400 && code < 500 {
				if err := st.forget(sctx, key); err != nil {
					slog.Warn("idempotency: release failed", "key", key, "error", err)
				}
				return nil
			}
			final := entry{
				Code:        code,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        tee.buf.Bytes(),
				BodySHA256:  hash,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   o.Now(),
			}
			if err := st.finish(sctx, key, final, o.TTL); err != nil {
				slog.Error("idempotency: store response failed", "key", key, "error", err)
			}
			return nil
		}
	}
}

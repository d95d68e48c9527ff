package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestInfoKey contextKey = "request_info"

// requestInfo is shared between RequestLogger and inner middleware so the
// access log can include details discovered further down the chain.
type requestInfo struct {
	requestID string
	userID    string
	fields    []zap.Field
}

func getRequestInfo(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

func setRequestUser(ctx context.Context, id uuid.UUID) {
	if info := getRequestInfo(ctx); info != nil {
		info.userID = id.String()
	}
}

func annotate(ctx context.Context, key, value string) {
	if info := getRequestInfo(ctx); info != nil {
		info.fields = append(info.fields, zap.String(key, value))
	}
}

// GetRequestID returns the request ID assigned by RequestLogger.
func GetRequestID(ctx context.Context) string {
	if info := getRequestInfo(ctx); info != nil {
		return info.requestID
	}
	return ""
}

// RequestLogger logs every request with latency, status, user and request ID.
// An incoming X-Request-ID header is reused; otherwise one is generated.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.L()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			info := &requestInfo{requestID: requestID}
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.Int("status", rec.status),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", ClientIP(r)),
				zap.String("user_agent", r.UserAgent()),
			}
			if info.userID != "" {
				fields = append(fields, zap.String("user_id", info.userID))
			}
			fields = append(fields, info.fields...)

			switch {
			case rec.status >= 500:
				logger.Error("http_request", fields...)
			case rec.status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

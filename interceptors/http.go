package interceptors

import (
	"net/http"
	"recipe-api/metrics"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// RequestLogger returns a container filter that logs every request after it
// has been handled.
func RequestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		fields := []zap.Field{
			zap.String("client_ip", clientIP(req.Request)),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		}
		if err := resp.Error(); err != nil {
			fields = append(fields, zap.Error(err))
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			logger.Error("Request", fields...)
			return
		}
		logger.Info("Request", fields...)
	}
}

// Metrics returns a container filter recording request counts and latency
// per route template.
func Metrics() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		endpoint := req.SelectedRoutePath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(req.Request.Method, endpoint, resp.StatusCode(), time.Since(startTime))
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

package interceptors

import (
	"context"
	"recipe-api/auth"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func zapLevel(lvl logging.Level) zapcore.Level {
	switch lvl {
	case logging.LevelDebug:
		return zapcore.DebugLevel
	case logging.LevelInfo:
		return zapcore.InfoLevel
	case logging.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// InterceptorLogger adapts a zap logger to the logging middleware's interface.
// Fields arrive as alternating keys and values; a trailing key is dropped.
func InterceptorLogger(l *zap.Logger) logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		ce := l.Check(zapLevel(lvl), msg)
		if ce == nil {
			return
		}
		zapFields := make([]zap.Field, 0, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			if key, ok := fields[i].(string); ok {
				zapFields = append(zapFields, zap.Any(key, fields[i+1]))
			}
		}
		ce.Write(zapFields...)
	})
}

// callerFields tags a call with the id of the user its token belongs to. The
// logging interceptor runs before AuthInterceptor, so the token is read from
// metadata here rather than from the authenticated context.
func callerFields(ctx context.Context) logging.Fields {
	values := metadata.ValueFromIncomingContext(ctx, "authorization")
	if len(values) == 0 {
		return nil
	}
	token, err := auth.ExtractToken(values[0])
	if err != nil {
		return nil
	}
	claims, err := auth.ParseAndValidateToken(token)
	if err != nil {
		return nil
	}
	return logging.Fields{"user_id", claims.UserID}
}

// ZapLoggingInterceptor logs the start and end of every unary call.
func ZapLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(InterceptorLogger(logger),
		logging.WithLogOnEvents(logging.StartCall, logging.FinishCall),
		logging.WithDurationField(logging.DurationToDurationField),
		logging.WithFieldsFromContext(callerFields),
		logging.WithLevels(logging.DefaultServerCodeToLevel),
	)
}

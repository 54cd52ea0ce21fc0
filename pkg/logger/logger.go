package logger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  = zap.NewNop()
	once sync.Once
)

type ContextKey string

const (
	RequestIDKey     ContextKey = "request_id"
	InvoiceNumberKey ContextKey = "invoice_number"
	MerchantIDKey    ContextKey = "merchant_id"
)

// Init initializes the logger
func Init(env string) {
	once.Do(func() {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		if env == "development" {
			config = zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		built, err := config.Build(zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
		log = built
	})
}

// GetLogger returns the underlying zap logger
func GetLogger() *zap.Logger {
	return log
}

// WithInvoice tags ctx so every log line of a reconciliation carries the invoice number.
func WithInvoice(ctx context.Context, invoice string) context.Context {
	return context.WithValue(ctx, InvoiceNumberKey, invoice)
}

// WithMerchant tags ctx with the PayU merchant id.
func WithMerchant(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, MerchantIDKey, merchantID)
}

// WithContext adds context fields (request_id, invoice_number, merchant_id) to the logger
func WithContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return log
	}

	var fields []zap.Field
	if reqID, ok := ctx.Value(string(RequestIDKey)).(string); ok { // gin stores it under a plain string key
		fields = append(fields, zap.String("request_id", reqID))
	} else if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if invoice, ok := ctx.Value(InvoiceNumberKey).(string); ok && invoice != "" {
		fields = append(fields, zap.String("invoice_number", invoice))
	}
	if merchantID, ok := ctx.Value(MerchantIDKey).(string); ok && merchantID != "" {
		fields = append(fields, zap.String("merchant_id", merchantID))
	}

	if len(fields) > 0 {
		return log.With(fields...)
	}
	return log
}

// Info logs a message at InfoLevel
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Info(msg, fields...)
}

// Error logs a message at ErrorLevel
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

// Debug logs a message at DebugLevel
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

// Warn logs a message at WarnLevel
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}

// RequestLog is one served HTTP request
type RequestLog struct {
	Method   string
	Path     string
	Route    string
	Status   int
	Latency  time.Duration
	ClientIP string
	Bytes    int
}

// LogRequest logs a served request; 5xx responses are logged at WarnLevel
func LogRequest(ctx context.Context, req RequestLog) {
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", req.Status),
		zap.Duration("latency", req.Latency),
		zap.String("client_ip", req.ClientIP),
		zap.Int("bytes", req.Bytes),
	}
	if req.Route != "" {
		fields = append(fields, zap.String("route", req.Route))
	}

	if req.Status >= 500 {
		WithContext(ctx).Warn("HTTP Request", fields...)
		return
	}
	WithContext(ctx).Info("HTTP Request", fields...)
}

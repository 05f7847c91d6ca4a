package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ProductionAndDevelopment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", env, err)
		}
		if log == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
		log.Sync()
	}
}

func TestErrorLogsCarryFields(t *testing.T) {
	var buf bytes.Buffer

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)

	log := zap.New(core)
	defer log.Sync()

	log.Error("checkout failed", zap.String("order_number", "AB12CD34EF"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["order_number"] != "AB12CD34EF" {
		t.Errorf("expected order_number field, got %v", entry)
	}
	if entry["level"] != "error" {
		t.Errorf("expected error level, got %v", entry["level"])
	}
}

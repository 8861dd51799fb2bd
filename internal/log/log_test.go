package log_test

import (
	"log/slog"
	"testing"

	"github.com/deobf-eval/trace-analysis/internal/log"
)

func TestInitialize(t *testing.T) {
	tests := []string{"dev", "prod", "PROD", ""}
	for _, env := range tests {
		name := env
		if name == "" {
			name = "default"
		}
		t.Run(name, func(t *testing.T) {
			logger := log.Initialize(env)
			if logger == nil {
				t.Fatalf("Initialize(%q) = nil", env)
			}
			if slog.Default() != logger {
				t.Errorf("Initialize(%q) did not install the default slog logger", env)
			}
		})
	}
}

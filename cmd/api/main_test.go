package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "password stripped",
			raw:  "postgres://app:hunter2@db:5432/bookhive",
			want: "postgres://app@db:5432/bookhive",
		},
		{
			name: "no credentials untouched",
			raw:  "redis://localhost:6379/0",
			want: "redis://localhost:6379/0",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redactURL(tt.raw); got != tt.want {
				t.Errorf("redactURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizeError(t *testing.T) {
	dbURL := "postgres://app:hunter2@db:5432/bookhive"
	err := errors.New("dial " + dbURL + ": connection refused")

	msg := sanitizeError(err, dbURL)

	if strings.Contains(msg, "hunter2") {
		t.Errorf("sanitized message still contains password: %s", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("sanitized message lost the error detail: %s", msg)
	}

	if got := sanitizeError(nil); got != "" {
		t.Errorf("sanitizeError(nil) = %q, want empty", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

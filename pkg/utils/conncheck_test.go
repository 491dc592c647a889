package utils

import (
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestExtractFromDBURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "postgresql://user:pw@db.local:6543/tdm", "db.local:6543"},
		{"default port", "postgresql://user:pw@db.local/tdm", "db.local:5432"},
		{"no credentials", "postgres://localhost:5432/tdm?sslmode=disable", "localhost:5432"},
		{"no db url", "mysql://localhost/tdm", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExtractFromDBURL(tt.url), tt.want)
		})
	}
}

func TestExtractFromNatsURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with port", "nats://nats.local:4223", "nats.local:4223"},
		{"default port", "nats://nats.local", "nats.local:4222"},
		{"with token", "nats://token@localhost:4222", "localhost:4222"},
		{"other scheme", "tls://localhost:4222", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExtractFromNatsURL(tt.url), tt.want)
		})
	}
}

func TestWaitForTCP(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NilError(t, err)
	defer l.Close()

	assert.NilError(t, WaitForTCP(l.Addr().String(), time.Second))

	addr := l.Addr().String()
	l.Close()
	assert.ErrorContains(t, WaitForTCP(addr, 300*time.Millisecond), "could not be reached")
}

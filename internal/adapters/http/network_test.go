package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/pkg/log"
)

func TestNetwork_ConnectReachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	n, err := NewNetwork(srv.URL+"/image?displayId=1", []string{"true"}, []string{"true"}, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if err := n.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := n.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
}

func TestNetwork_ConnectFailures(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	live := httptest.NewServer(http.NotFoundHandler())
	defer live.Close()

	tests := []struct {
		name     string
		endpoint string
		up       []string
	}{
		{"nothing listening", closedURL, nil},
		{"bring-up fails", live.URL, []string{"false"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNetwork(tt.endpoint, tt.up, nil, log.NewNoopLogger())
			if err != nil {
				t.Fatalf("NewNetwork: %v", err)
			}
			if err := n.Connect(context.Background()); !errors.Is(err, domain.ErrNoConnectivity) {
				t.Fatalf("Connect() error = %v, want ErrNoConnectivity", err)
			}
		})
	}
}

func TestNewNetwork_DefaultPorts(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"http://frames.local/image", "frames.local:80"},
		{"https://frames.local/image", "frames.local:443"},
		{"http://10.0.0.2:8080/image?displayId=1", "10.0.0.2:8080"},
	}
	for _, tt := range tests {
		n, err := NewNetwork(tt.endpoint, nil, nil, log.NewNoopLogger())
		if err != nil {
			t.Fatalf("NewNetwork(%q): %v", tt.endpoint, err)
		}
		if n.addr != tt.want {
			t.Errorf("addr = %q, want %q", n.addr, tt.want)
		}
	}

	if _, err := NewNetwork("/relative/path", nil, nil, log.NewNoopLogger()); err == nil {
		t.Error("expected error for endpoint without host")
	}
}

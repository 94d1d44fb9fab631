package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/pkg/log"
)

type fixedVoltage struct {
	v   float64
	err error
}

func (f fixedVoltage) Voltage() (float64, error) { return f.v, f.err }

func payload() []byte {
	p := make([]byte, domain.FrameSize)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestFrameSource_DiscardsPrefix(t *testing.T) {
	header := bytes.Repeat([]byte{0xEE}, 62)
	body := append(append([]byte{}, header...), payload()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}))
	defer srv.Close()

	src := NewFrameSource(srv.URL+"/image?displayId=1", srv.Client(), nil, "", log.NewNoopLogger())
	frame, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(frame, payload()) {
		t.Fatal("payload mismatch after prefix discard")
	}
}

func TestFrameSource_UndeclaredLengthUsesTail(t *testing.T) {
	body := append(bytes.Repeat([]byte{0xEE}, 100), payload()...)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write(body)
	}))
	defer srv.Close()

	src := NewFrameSource(srv.URL, srv.Client(), nil, "", log.NewNoopLogger())
	frame, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(frame, payload()) {
		t.Fatal("payload mismatch for chunked body")
	}
}

func TestFrameSource_SendsVoltageAndIdentity(t *testing.T) {
	var gotQuery, gotPartition string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotPartition = r.Header.Get("X-Framecast-Partition")
		w.Write(payload())
	}))
	defer srv.Close()

	src := NewFrameSource(srv.URL+"/image?displayId=3", srv.Client(), fixedVoltage{v: 3.98765}, "ota_1", log.NewNoopLogger())
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery != "batteryVoltage=3.99&displayId=3" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotPartition != "ota_1" {
		t.Errorf("partition header = %q", gotPartition)
	}
}

func TestFrameSource_VoltageUnavailableOmitsParameter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write(payload())
	}))
	defer srv.Close()

	src := NewFrameSource(srv.URL+"/image?displayId=3", srv.Client(), fixedVoltage{err: errors.New("no adc")}, "", log.NewNoopLogger())
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery != "displayId=3" {
		t.Errorf("query = %q, want displayId=3", gotQuery)
	}
}

func TestFrameSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no frames", http.StatusInternalServerError)
			},
			wantErr: domain.ErrSourceUnavailable,
		},
		{
			name: "unknown display",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "No display found", http.StatusBadRequest)
			},
			wantErr: domain.ErrSourceUnavailable,
		},
		{
			name: "body shorter than a frame",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(make([]byte, 100))
			},
			wantErr: domain.ErrFrameSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewFrameSource(srv.URL, srv.Client(), nil, "", log.NewNoopLogger())
			if _, err := src.Fetch(context.Background()); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFrameSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewFrameSource(url, http.DefaultClient, nil, "", log.NewNoopLogger())
	if _, err := src.Fetch(context.Background()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrSourceUnavailable", err)
	}
}

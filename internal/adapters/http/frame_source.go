package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strconv"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// maxPrefixBytes bounds the body read when the producer does not declare a
// content length.
const maxPrefixBytes = 1 << 20

// FrameSource implements ports.FrameSource against the producer endpoint.
type FrameSource struct {
	endpoint  string
	client    ports.HTTPClient
	voltage   ports.VoltageSensor
	partition string
	logger    ports.Logger
}

// NewFrameSource creates a source for endpoint. voltage may be nil, in which
// case no telemetry parameter is sent.
func NewFrameSource(endpoint string, client ports.HTTPClient, voltage ports.VoltageSensor, partition string, logger ports.Logger) *FrameSource {
	return &FrameSource{
		endpoint:  endpoint,
		client:    client,
		voltage:   voltage,
		partition: partition,
		logger:    logger,
	}
}

func (s *FrameSource) requestURL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if s.voltage == nil {
		return u.String(), nil
	}

	v, err := s.voltage.Voltage()
	if err != nil {
		s.logger.Debug("battery voltage unavailable", ports.Err(err))
		return u.String(), nil
	}
	q := u.Query()
	q.Set("batteryVoltage", strconv.FormatFloat(v, 'f', 2, 64))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch downloads one frame. The body is a prefix of unrelated bytes
// (typically an image header) followed by exactly domain.FrameSize payload
// bytes; the prefix is discarded.
func (s *FrameSource) Fetch(ctx context.Context) (domain.Frame, error) {
	target, err := s.requestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if host, err := os.Hostname(); err == nil {
		req.Header.Set("X-Framecast-Hostname", host)
	}
	req.Header.Set("X-Framecast-OSArch", runtime.GOOS+"/"+runtime.GOARCH)
	if s.partition != "" {
		req.Header.Set("X-Framecast-Partition", s.partition)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: server returned %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, string(body))
	}

	frame, err := readPayload(resp.Body, resp.ContentLength)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("frame fetched", ports.Int64("content_length", resp.ContentLength))
	return frame, nil
}

func readPayload(body io.Reader, contentLength int64) (domain.Frame, error) {
	if contentLength >= 0 {
		if contentLength < domain.FrameSize {
			return nil, fmt.Errorf("%w: content length %d", domain.ErrFrameSize, contentLength)
		}
		if _, err := io.CopyN(io.Discard, body, contentLength-domain.FrameSize); err != nil {
			return nil, fmt.Errorf("%w: skip prefix: %w", domain.ErrSourceUnavailable, err)
		}
		frame := make(domain.Frame, domain.FrameSize)
		if _, err := io.ReadFull(body, frame); err != nil {
			return nil, fmt.Errorf("%w: read payload: %w", domain.ErrSourceUnavailable, err)
		}
		return frame, nil
	}

	// undeclared length: the payload is the tail of the body
	data, err := io.ReadAll(io.LimitReader(body, domain.FrameSize+maxPrefixBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrSourceUnavailable, err)
	}
	if len(data) > domain.FrameSize+maxPrefixBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFrameSize, domain.FrameSize+maxPrefixBytes)
	}
	if len(data) < domain.FrameSize {
		return nil, fmt.Errorf("%w: body has %d bytes", domain.ErrFrameSize, len(data))
	}
	return domain.Frame(data[len(data)-domain.FrameSize:]), nil
}

package server

import (
	"net/http"
	"os"
	"strconv"

	"github.com/bft-labs/framecast/internal/ports"
)

// Recorder receives request-level measurements. *metrics.ServerMetrics
// satisfies it.
type Recorder interface {
	Request(code int)
	FrameServed(display string)
	BatteryVoltage(display string, volts float64)
}

type nopRecorder struct{}

func (nopRecorder) Request(int)                    {}
func (nopRecorder) FrameServed(string)             {}
func (nopRecorder) BatteryVoltage(string, float64) {}

// ImageHandler serves GET /image?displayId=N[&batteryVoltage=V].
type ImageHandler struct {
	library  *Library
	voltages *VoltageLog
	recorder Recorder
	logger   ports.Logger
}

// NewImageHandler creates the handler. recorder may be nil.
func NewImageHandler(library *Library, voltages *VoltageLog, recorder Recorder, logger ports.Logger) *ImageHandler {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &ImageHandler{
		library:  library,
		voltages: voltages,
		recorder: recorder,
		logger:   logger,
	}
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("displayId")
	if id == "" {
		h.fail(w, http.StatusBadRequest, "Missing displayId query parameter")
		return
	}
	if !h.library.Has(id) {
		h.fail(w, http.StatusBadRequest, "No display found for Id = "+id)
		return
	}

	if raw := q.Get("batteryVoltage"); raw != "" {
		h.recordVoltage(id, raw)
	}

	path, err := h.library.Next(id)
	if err != nil {
		h.logger.Error("next frame", ports.String("display", id), ports.Err(err))
		h.fail(w, http.StatusInternalServerError, "Error reading BMP file: "+err.Error())
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		h.logger.Error("read frame", ports.String("path", path), ports.Err(err))
		h.fail(w, http.StatusInternalServerError, "Error reading BMP file: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/bmp")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Debug("write frame", ports.Err(err))
	}
	h.recorder.Request(http.StatusOK)
	h.recorder.FrameServed(id)
	h.logger.Debug("frame served",
		ports.String("display", id),
		ports.String("file", path),
		ports.Int("bytes", len(data)),
	)
}

// recordVoltage never fails the request; a device still needs its frame.
func (h *ImageHandler) recordVoltage(id, raw string) {
	volts, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.logger.Warn("invalid battery voltage", ports.String("display", id), ports.String("value", raw))
		return
	}
	h.logger.Info("battery voltage", ports.String("display", id), ports.Float64("volts", volts))
	h.recorder.BatteryVoltage(id, volts)
	if err := h.voltages.Append(id, volts); err != nil {
		h.logger.Warn("append voltage log", ports.String("display", id), ports.Err(err))
	}
}

func (h *ImageHandler) fail(w http.ResponseWriter, code int, msg string) {
	h.recorder.Request(code)
	http.Error(w, msg, code)
}

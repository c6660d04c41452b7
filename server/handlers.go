package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/reading"
	"github.com/eddielth/sensor-gate/transformer"
	"github.com/eddielth/sensor-gate/validator"
)

// handleSensorData accepts a raw sensor payload, transforms it and, on
// success, answers 202 immediately while the sinks run in the background.
// The response means "accepted for processing", not "durably stored".
func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	var sensorReading reading.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&sensorReading); err != nil {
		logger.Warn("rejected malformed payload: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON payload",
		})
		return
	}

	record, err := s.transformer.Transform(sensorReading)
	if err != nil {
		var dqErr *validator.DataQualityError
		if errors.As(err, &dqErr) {
			// Bad sensor data is the client's fault, not a server error
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": dqErr.Error(),
			})
			return
		}
		logger.Error("failed to process sensor data: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to process sensor data",
		})
		return
	}

	if record == nil {
		// Lenient mode absorbed the violations; the reading was dropped whole
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "dropped",
		})
		return
	}

	username, _, _ := r.BasicAuth()
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "sensor data received from " + username + " and queued for processing",
	})

	s.dispatch(sensorReading.DeviceID, record)
}

// dispatch hands the record to both sinks, each in its own goroutine bounded
// by the configured sink timeout. The sinks have no ordering guarantee
// relative to each other and neither failure affects the other.
func (s *Server) dispatch(deviceID string, record *transformer.Record) {
	if s.publisher != nil {
		go func() {
			defer logPanic("publish")
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SinkTimeout)
			defer cancel()
			if err := s.publisher.Publish(ctx, record); err != nil {
				logger.Error("publish sink failed for device %s: %v", deviceID, err)
			}
		}()
	}

	if s.store != nil {
		go func() {
			defer logPanic("store")
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SinkTimeout)
			defer cancel()
			if err := s.store.Store(ctx, deviceID, record); err != nil {
				logger.Error("storage sink failed for device %s: %v", deviceID, err)
			}
		}()
	}
}

// handleRoot reports service status to an authenticated caller
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	username, _, _ := r.BasicAuth()
	writeJSON(w, http.StatusOK, map[string]string{
		"message":          "sensor-gate is running, POST readings to /sensor-data",
		"authenticated_as": username,
	})
}

// handleHealth answers liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// logPanic keeps a misbehaving sink from taking the process down
func logPanic(sink string) {
	if rec := recover(); rec != nil {
		logger.Error("%s sink panicked: %v", sink, rec)
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response: %v", err)
	}
}

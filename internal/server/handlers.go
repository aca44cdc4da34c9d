package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/muurk/soleus/internal/bridge"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
	"github.com/muurk/soleus/internal/transmit"
	"go.uber.org/zap"
)

// maxBodySize bounds request bodies; a raw capture is a few kilobytes
const maxBodySize = 64 * 1024

type unitInfo struct {
	Name   string                 `json:"name"`
	State  protocol.State         `json:"state"`
	Frame  string                 `json:"frame"`
	Traits protocol.ClimateTraits `json:"traits"`
}

type stateResponse struct {
	Unit  string         `json:"unit"`
	State protocol.State `json:"state"`
	Frame string         `json:"frame"`
	Rule  string         `json:"rule"`
}

type byteInfo struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Name    string `json:"name"`
	Meaning string `json:"meaning"`
}

type frameResponse struct {
	Unit      string     `json:"unit"`
	Frame     string     `json:"frame"`
	Bytes     []byteInfo `json:"bytes"`
	Durations int        `json:"durations"`
	Duration  uint64     `json:"duration_us"`
	Pronto    string     `json:"pronto"`
}

type decodeRequest struct {
	Frame string `json:"frame,omitempty"`
}

type decodeResponse struct {
	Frame    string          `json:"frame"`
	Valid    bool            `json:"valid"`
	Error    string          `json:"error,omitempty"`
	State    *protocol.State `json:"state,omitempty"`
	Partial  bool            `json:"partial"`
	Warnings []string        `json:"warnings,omitempty"`
	Bytes    []byteInfo      `json:"bytes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func annotate(f protocol.Frame) []byteInfo {
	meanings := f.Annotate()
	out := make([]byteInfo, len(meanings))
	for i, m := range meanings {
		out[i] = byteInfo{
			Index:   m.Index,
			Value:   fmt.Sprintf("%02X", m.Value),
			Name:    m.Name,
			Meaning: m.Meaning,
		}
	}
	return out
}

func (s *Server) handleUnits(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	units := make([]unitInfo, 0, len(s.units))
	for _, name := range s.unitNames() {
		b := s.units[name]
		units = append(units, unitInfo{
			Name:   name,
			State:  b.State(),
			Frame:  b.Frame().String(),
			Traits: b.Traits(),
		})
	}
	writeJSON(w, http.StatusOK, units)
}

func (s *Server) stateOf(b *bridge.Bridge) stateResponse {
	st := b.State()
	return stateResponse{
		Unit:  b.Name(),
		State: st,
		Frame: b.Frame().String(),
		Rule:  b.Codec().Rule(st),
	}
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stateOf(b))
}

// handlePutState merges the JSON body onto the current state, so clients
// may send only the fields they change.
func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	next := b.State()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid state: %w", err))
		return
	}
	if err := normalizeState(&next); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if _, err := b.Set(r.Context(), next); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, bridge.ErrUnsupportedMode) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stateOf(b))
}

// normalizeState accepts the same aliases as the command line
func normalizeState(st *protocol.State) error {
	if st.Mode == protocol.ModeOff {
		st.Power = false
		st.Mode = protocol.ModeCool
	} else if st.Mode != protocol.ModeHeatCool {
		m, err := protocol.ParseMode(string(st.Mode))
		if err != nil {
			return err
		}
		st.Mode = m
	}
	fan, err := protocol.ParseFanSpeed(string(st.FanSpeed))
	if err != nil {
		return err
	}
	st.FanSpeed = fan
	preset, err := protocol.ParsePreset(string(st.Preset))
	if err != nil {
		return err
	}
	st.Preset = preset
	return nil
}

func (s *Server) handleTraits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Traits())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	frame := b.Frame()
	seq := pulse.ToPulses(frame)
	writeJSON(w, http.StatusOK, frameResponse{
		Unit:      b.Name(),
		Frame:     frame.String(),
		Bytes:     annotate(frame),
		Durations: len(seq),
		Duration:  seq.Duration(),
		Pronto:    pulse.ToPronto(seq, pulse.CarrierHz),
	})
}

// handleDecode accepts {"frame": "19 80 ..."} or any capture payload the
// MQTT receiver understands (timings array, Pronto text or object).
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b, err := s.unit(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	frame, err := frameFromBody(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := decodeResponse{Frame: frame.String(), Bytes: annotate(frame)}
	decoded, err := b.Codec().Decode(frame)
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	resp.Valid = true
	resp.State = &decoded.State
	resp.Partial = decoded.Partial()
	for _, warn := range decoded.Warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func frameFromBody(body []byte) (protocol.Frame, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var req decodeRequest
		if err := json.Unmarshal(body, &req); err == nil && req.Frame != "" {
			return protocol.ParseFrame(req.Frame)
		}
	}

	seq, _, err := transmit.ParsePayload(body)
	if err != nil {
		return protocol.Frame{}, err
	}
	return pulse.FromPulses(seq)
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/ohbridge/internal/accessory"
)

// AccessoryResponse describes one accessory and its characteristics.
type AccessoryResponse struct {
	accessory.Info
	Characteristics []accessory.Descriptor `json:"characteristics"`
}

// CharacteristicValue is the body of characteristic reads and writes.
type CharacteristicValue struct {
	Serial         string `json:"serial,omitempty"`
	Characteristic string `json:"characteristic,omitempty"`
	Value          any    `json:"value"`
}

func describeAccessory(acc accessory.Accessory) AccessoryResponse {
	chars := acc.Characteristics()
	descs := make([]accessory.Descriptor, 0, len(chars))
	for _, c := range chars {
		descs = append(descs, c.Describe())
	}
	return AccessoryResponse{Info: acc.Info(), Characteristics: descs}
}

func (s *Server) handleListAccessories(w http.ResponseWriter, _ *http.Request) {
	all := s.accessories.All()
	out := make([]AccessoryResponse, 0, len(all))
	for _, acc := range all {
		out = append(out, describeAccessory(acc))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessories": out,
		"count":       len(out),
	})
}

func (s *Server) handleGetAccessory(w http.ResponseWriter, r *http.Request) {
	acc, err := s.accessories.Get(chi.URLParam(r, "serial"))
	if err != nil {
		writeCharacteristicError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describeAccessory(acc))
}

// handleGetCharacteristic reads a characteristic live from the registry.
func (s *Server) handleGetCharacteristic(w http.ResponseWriter, r *http.Request) {
	serial, name := chi.URLParam(r, "serial"), chi.URLParam(r, "name")
	c, err := s.accessories.Characteristic(serial, name)
	if err != nil {
		writeCharacteristicError(w, err)
		return
	}

	ctx := accessory.WithSource(r.Context(), accessory.SourceAPI)
	v, err := c.Get(ctx)
	if err != nil {
		s.logger.Warn("characteristic read failed", "serial", serial, "characteristic", name, "error", err)
		writeCharacteristicError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CharacteristicValue{Serial: serial, Characteristic: name, Value: v})
}

// handleSetCharacteristic writes {"value": ...} to a characteristic.
func (s *Server) handleSetCharacteristic(w http.ResponseWriter, r *http.Request) {
	serial, name := chi.URLParam(r, "serial"), chi.URLParam(r, "name")
	c, err := s.accessories.Characteristic(serial, name)
	if err != nil {
		writeCharacteristicError(w, err)
		return
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(body.Value) == 0 {
		writeBadRequest(w, `"value" is required`)
		return
	}
	dec := json.NewDecoder(bytes.NewReader(body.Value))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		writeBadRequest(w, "invalid value")
		return
	}

	ctx := accessory.WithSource(r.Context(), accessory.SourceAPI)
	if err := c.Set(ctx, value); err != nil {
		s.logger.Warn("characteristic write failed", "serial", serial, "characteristic", name, "error", err)
		writeCharacteristicError(w, err)
		return
	}
	s.logger.Info("characteristic written",
		"serial", serial,
		"characteristic", name,
		"value", value,
		"subject", r.Context().Value(ctxKeySubject),
	)
	writeJSON(w, http.StatusOK, CharacteristicValue{Serial: serial, Characteristic: name, Value: value})
}

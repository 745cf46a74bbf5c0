package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/underkeep/internal/engine"
)

// SnapshotVersion identifies the payload layout: one JSON header line
// followed by zstd-compressed JSON of the colony state.
const SnapshotVersion = 1

// Header prefixes every payload and can be read without decompressing.
type Header struct {
	Version      int    `json:"version"`
	SaveID       string `json:"save_id"`
	Tick         uint64 `json:"tick"`
	StateVersion int    `json:"state_version"`
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Encode serializes st into a save payload.
func Encode(saveID string, st engine.State) ([]byte, error) {
	hb, err := json.Marshal(Header{
		Version:      SnapshotVersion,
		SaveID:       saveID,
		Tick:         st.Tick,
		StateVersion: st.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	body, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	out := make([]byte, 0, len(hb)+1+len(body)/4)
	out = append(out, hb...)
	out = append(out, '\n')
	return encoder.EncodeAll(body, out), nil
}

// ReadHeader parses the header of a payload.
func ReadHeader(payload []byte) (Header, error) {
	var h Header
	line, _, ok := bytes.Cut(payload, []byte{'\n'})
	if !ok {
		return h, fmt.Errorf("%w: missing header", ErrCorruptSave)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("%w: header: %v", ErrCorruptSave, err)
	}
	if h.Version != SnapshotVersion {
		return h, fmt.Errorf("%w: snapshot version %d, want %d", ErrCorruptSave, h.Version, SnapshotVersion)
	}
	return h, nil
}

// Decode parses a save payload back into colony state. Every failure wraps
// ErrCorruptSave.
func Decode(payload []byte) (engine.State, error) {
	var st engine.State
	h, err := ReadHeader(payload)
	if err != nil {
		return st, err
	}
	_, compressed, _ := bytes.Cut(payload, []byte{'\n'})

	body, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return st, fmt.Errorf("%w: decompress: %v", ErrCorruptSave, err)
	}
	if err := json.Unmarshal(body, &st); err != nil {
		return st, fmt.Errorf("%w: state: %v", ErrCorruptSave, err)
	}
	if st.Tick != h.Tick || st.Version != h.StateVersion {
		return st, fmt.Errorf("%w: header says tick %d, state has %d", ErrCorruptSave, h.Tick, st.Tick)
	}
	return st, nil
}

// Package statefile implements the on-disk representation of persisted cache state.
package statefile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"go.trai.ch/incr/internal/core/domain"
	"go.trai.ch/incr/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StateCodec = (*Codec)(nil)

// Codec implements ports.StateCodec as pretty-printed JSON.
//
// Decoding is strict: unknown fields, a missing required field, a different
// format version or trailing data all fail, and the caller treats any failure as
// a cache miss.
//
// JSON strings only carry valid UTF-8. Any string that is not valid UTF-8, or that
// starts with rawPrefix, is stored as rawPrefix followed by its base64 bytes so that
// file names and values survive a round trip unchanged.
type Codec struct{}

const rawPrefix = "base64:"

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{}
}

type wireState struct {
	Version          *int               `json:"version"`
	CodeVersion      *string            `json:"codeVersion"`
	Configuration    map[string]string  `json:"configuration"`
	Inputs           []string           `json:"inputs"`
	InputsState      map[string]string  `json:"inputsState"`
	Outputs          []string           `json:"outputs"`
	OutputsState     map[string]string  `json:"outputsState"`
	OutputProperties map[string]string  `json:"outputProperties"`
	ExcludedOutputs  []string           `json:"excludedOutputs,omitempty"`
	ExpiresAt        *time.Time         `json:"expiresAt,omitempty"`
	DynamicInputs    *wireDynamicInputs `json:"dynamicInputs,omitempty"`
}

type wireDynamicInputs struct {
	Env        map[string]*string `json:"env,omitempty"`
	PathsExist map[string]bool    `json:"pathsExist,omitempty"`
}

// Encode implements ports.StateCodec.
func (c *Codec) Encode(state *domain.PersistedState) ([]byte, error) {
	version := domain.StateFormatVersion
	codeVersion := encodeString(state.CodeVersion)
	w := wireState{
		Version:          &version,
		CodeVersion:      &codeVersion,
		Configuration:    encodeMap(nonNilMap(state.Configuration)),
		Inputs:           encodeSlice(nonNilSlice(state.Inputs)),
		InputsState:      encodeMap(nonNilMap(state.InputsState)),
		Outputs:          encodeSlice(nonNilSlice(state.Outputs)),
		OutputsState:     encodeMap(nonNilMap(state.OutputsState)),
		OutputProperties: encodeMap(nonNilMap(state.OutputProperties)),
		ExcludedOutputs:  encodeSlice(state.ExcludedOutputs),
	}
	if !state.ExpiresAt.IsZero() {
		expiresAt := state.ExpiresAt.UTC()
		w.ExpiresAt = &expiresAt
	}
	if !state.DynamicInputs.IsEmpty() {
		w.DynamicInputs = &wireDynamicInputs{
			Env:        encodeEnv(state.DynamicInputs.Env),
			PathsExist: encodeKeys(state.DynamicInputs.PathsExist),
		}
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateEncodeFailed.Error())
	}
	return append(data, '\n'), nil
}

// Decode implements ports.StateCodec.
func (c *Codec) Decode(data []byte) (*domain.PersistedState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireState
	if err := dec.Decode(&w); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDecodeFailed.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, zerr.With(domain.ErrStateDecodeFailed, "reason", "trailing data after state record")
	}

	if w.Version == nil {
		return nil, zerr.With(domain.ErrStateDecodeFailed, "field", "version")
	}
	if *w.Version != domain.StateFormatVersion {
		return nil, zerr.With(domain.ErrUnsupportedStateVersion, "version", *w.Version)
	}
	if err := requireFields(&w); err != nil {
		return nil, err
	}

	d := &stringDecoder{}
	state := &domain.PersistedState{
		CodeVersion:      d.str(*w.CodeVersion),
		Configuration:    d.strMap(w.Configuration),
		Inputs:           d.strSlice(w.Inputs),
		InputsState:      d.strMap(w.InputsState),
		Outputs:          d.strSlice(w.Outputs),
		OutputsState:     d.strMap(w.OutputsState),
		OutputProperties: d.strMap(w.OutputProperties),
		ExcludedOutputs:  d.strSlice(w.ExcludedOutputs),
	}
	if w.ExpiresAt != nil {
		state.ExpiresAt = *w.ExpiresAt
	}
	if w.DynamicInputs != nil {
		state.DynamicInputs = domain.DynamicInputsState{
			Env:        d.env(w.DynamicInputs.Env),
			PathsExist: d.keys(w.DynamicInputs.PathsExist),
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return state, nil
}

func requireFields(w *wireState) error {
	missing := ""
	switch {
	case w.CodeVersion == nil:
		missing = "codeVersion"
	case w.Configuration == nil:
		missing = "configuration"
	case w.Inputs == nil:
		missing = "inputs"
	case w.InputsState == nil:
		missing = "inputsState"
	case w.Outputs == nil:
		missing = "outputs"
	case w.OutputsState == nil:
		missing = "outputsState"
	case w.OutputProperties == nil:
		missing = "outputProperties"
	}
	if missing != "" {
		return zerr.With(domain.ErrStateDecodeFailed, "field", missing)
	}
	return nil
}

func nonNilMap[M ~map[string]string](m M) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func encodeString(s string) string {
	if utf8.ValidString(s) && !strings.HasPrefix(s, rawPrefix) {
		return s
	}
	return rawPrefix + base64.StdEncoding.EncodeToString([]byte(s))
}

func encodeSlice(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = encodeString(v)
	}
	return out
}

func encodeMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[encodeString(k)] = encodeString(v)
	}
	return out
}

func encodeEnv(env map[string]*string) map[string]*string {
	if env == nil {
		return nil
	}
	out := make(map[string]*string, len(env))
	for k, v := range env {
		if v != nil {
			encoded := encodeString(*v)
			v = &encoded
		}
		out[encodeString(k)] = v
	}
	return out
}

func encodeKeys(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[encodeString(k)] = v
	}
	return out
}

// stringDecoder reverses encodeString and keeps the first malformed value it sees.
type stringDecoder struct {
	err error
}

func (d *stringDecoder) str(s string) string {
	payload, ok := strings.CutPrefix(s, rawPrefix)
	if !ok {
		return s
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if d.err == nil {
			d.err = zerr.With(zerr.Wrap(err, domain.ErrStateDecodeFailed.Error()), "value", s)
		}
		return s
	}
	return string(raw)
}

func (d *stringDecoder) strSlice(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = d.str(v)
	}
	return out
}

func (d *stringDecoder) strMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[d.str(k)] = d.str(v)
	}
	return out
}

func (d *stringDecoder) env(env map[string]*string) map[string]*string {
	if env == nil {
		return nil
	}
	out := make(map[string]*string, len(env))
	for k, v := range env {
		if v != nil {
			decoded := d.str(*v)
			v = &decoded
		}
		out[d.str(k)] = v
	}
	return out
}

func (d *stringDecoder) keys(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[d.str(k)] = v
	}
	return out
}

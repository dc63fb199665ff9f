package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Manifest is the serialized join point table of one owner type. Generated
// proxies embed it and hand it to Table.Install.
type Manifest struct {
	Owner      string                 `json:"owner"`
	JoinPoints map[string][]AdviceRef `json:"joinPoints"` // keyed by Key.String()
}

// NewManifest creates an empty manifest for owner.
func NewManifest(owner string) *Manifest {
	return &Manifest{Owner: owner, JoinPoints: make(map[string][]AdviceRef)}
}

// Add appends refs to the chain for key.
func (m *Manifest) Add(key Key, refs ...AdviceRef) {
	m.JoinPoints[key.String()] = append(m.JoinPoints[key.String()], refs...)
}

// Keys returns the manifest's join points in sorted order.
func (m *Manifest) Keys() ([]Key, error) {
	names := make([]string, 0, len(m.JoinPoints))
	for name := range m.JoinPoints {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k, err := ParseKey(name)
		if err != nil {
			return nil, err
		}
		if k.Owner != m.Owner {
			return nil, fmt.Errorf("manifest for %s contains foreign join point %s", m.Owner, name)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Encode returns the manifest as compact JSON. Map keys are sorted by
// encoding/json, so equal manifests always encode to the same bytes. HTML
// escaping is off so keys keep their "->" in generated source.
func (m *Manifest) Encode() ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeManifest parses and validates a manifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Owner == "" {
		return nil, fmt.Errorf("failed to parse manifest: missing owner")
	}
	if m.JoinPoints == nil {
		m.JoinPoints = make(map[string][]AdviceRef)
	}
	if _, err := m.Keys(); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Program is a structural model decoded from JSON.
type Program struct {
	// MemberKinds restricts the kinds the program claims to describe.
	// Empty means all kinds.
	MemberKinds []Kind  `json:"kinds,omitempty"`
	TypeList    []*Type `json:"types"`
}

// Types implements Source.
func (p *Program) Types() ([]*Type, error) { return p.TypeList, nil }

// Kinds implements Source.
func (p *Program) Kinds() []Kind {
	if len(p.MemberKinds) == 0 {
		return []Kind{Method, StaticMethod, Property, StaticInit}
	}
	return p.MemberKinds
}

// Decode reads a program model from JSON.
func Decode(r io.Reader) (*Program, error) {
	var prog Program
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&prog); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return &prog, nil
}

// DecodeBytes parses a program model from a byte slice.
func DecodeBytes(data []byte) (*Program, error) {
	var prog Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return &prog, nil
}

// LoadFile reads a program model from a JSON file.
func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

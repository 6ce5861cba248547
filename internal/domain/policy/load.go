package policy

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/types"
	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a YAML (or JSON) policy document. Unknown fields
// are rejected.
func Parse(data []byte) (*Policy, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes and validates a policy document from r.
func Load(r io.Reader) (*Policy, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Policy
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, types.MissingValue("policy document")
		}
		if errors.Is(err, types.ErrInvalidValues) {
			return nil, err
		}
		return nil, types.InvalidValues("decode policy: %v", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads a policy document from path.
func LoadFile(path string) (*Policy, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, errors.Wrapf(err, "open policy %s", path)
	}
	defer func() { _ = f.Close() }()

	p, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load policy %s", path)
	}
	return p, nil
}

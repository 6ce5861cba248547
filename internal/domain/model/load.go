package model

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/types"
	"gopkg.in/yaml.v3"
)

// ResultsDocument is the file form of a batch of participant results.
type ResultsDocument struct {
	Results []ParticipantResult `json:"results" yaml:"results"`
}

// LoadResults decodes a YAML (or JSON) results document. An empty document
// yields no results.
func LoadResults(r io.Reader) ([]ParticipantResult, error) {
	var doc ResultsDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, types.InvalidValues("decode results: %v", err)
	}
	for i := range doc.Results {
		if doc.Results[i].ParticipantID == "" {
			return nil, errors.Wrapf(types.MissingValue("participantId"), "results[%d]", i)
		}
	}
	return doc.Results, nil
}

// LoadResultsFile reads a results document from path.
func LoadResultsFile(path string) ([]ParticipantResult, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, errors.Wrapf(err, "open results %s", path)
	}
	defer func() { _ = f.Close() }()

	results, err := LoadResults(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load results %s", path)
	}
	return results, nil
}

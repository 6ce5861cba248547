package sampledata

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/domain/model"
	"gopkg.in/yaml.v3"
)

// File names written by WriteFiles.
const (
	ResultsFile = "results.yaml"
	RatingsFile = "ratings.yaml"

	directoryPermission = 0o750
	filePermission      = 0o600
)

// WriteFiles writes the dataset as a results document and a ratings document
// under dir and returns their paths.
func WriteFiles(dir string, ds Dataset) (resultsPath, ratingsPath string, err error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return "", "", errors.Wrapf(err, "create %s", dir)
	}
	resultsPath = filepath.Join(dir, ResultsFile)
	if err := writeYAML(resultsPath, model.ResultsDocument{Results: ds.Results}); err != nil {
		return "", "", err
	}
	ratingsPath = filepath.Join(dir, RatingsFile)
	if err := writeYAML(ratingsPath, struct {
		Scales any `yaml:"scales"`
	}{Scales: ds.Ratings}); err != nil {
		return "", "", err
	}
	return resultsPath, ratingsPath, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

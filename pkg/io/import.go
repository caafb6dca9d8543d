package io

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/geo"
)

// maxInputSize bounds dataset and boundary files read into memory.
const maxInputSize = 256 << 20

// recordList is the object form of a dataset file.
type recordList struct {
	Records []dataset.RawRecord `json:"records" yaml:"records" toml:"records"`
}

// ReadDataset decodes raw records from r in the given format
// ("json", "yaml" or "toml").
//
// ReadDataset only reports syntax errors. Record-level problems are left to
// [dataset.New]. ReadDataset does not close r.
func ReadDataset(r io.Reader, format string) ([]dataset.RawRecord, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return decodeJSON(data)
	case "yaml":
		return decodeYAML(data)
	case "toml":
		var list recordList
		if _, err := toml.Decode(string(data), &list); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml dataset")
		}
		return list.Records, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported dataset format %q", format)
	}
}

func decodeJSON(data []byte) ([]dataset.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var records []dataset.RawRecord
		if err := dec.Decode(&records); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json dataset")
		}
		return records, nil
	}

	var list recordList
	if err := dec.Decode(&list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json dataset")
	}
	return list.Records, nil
}

func decodeYAML(data []byte) ([]dataset.RawRecord, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml dataset")
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []dataset.RawRecord
		if err := root.Decode(&records); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml dataset")
		}
		return records, nil
	}

	var list recordList
	if err := root.Decode(&list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml dataset")
	}
	return list.Records, nil
}

// ImportDataset reads the dataset file at path and validates its records.
//
// The format is taken from the file extension. A missing file is reported
// with [errors.ErrCodeFileNotFound], a syntax error with
// [errors.ErrCodeInvalidFormat].
func ImportDataset(ctx context.Context, path string, opts dataset.Options) (*dataset.Dataset, error) {
	if err := errors.ValidateDataPath(path); err != nil {
		return nil, err
	}
	format, err := errors.DataFormat(path)
	if err != nil {
		return nil, err
	}
	if format != "json" && format != "yaml" && format != "toml" {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s is a boundary file, not a dataset", path)
	}

	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raws, err := ReadDataset(bufio.NewReader(f), format)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read %s", path)
	}
	return dataset.New(ctx, raws, opts), nil
}

// ReadBoundaries decodes a TopoJSON or GeoJSON document from r.
func ReadBoundaries(r io.Reader, opts geo.Options) (*geo.FeatureSet, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return geo.Decode(data, opts)
}

// ImportBoundaries reads the boundary file at path.
func ImportBoundaries(path string, opts geo.Options) (*geo.FeatureSet, error) {
	if err := errors.ValidateDataPath(path); err != nil {
		return nil, err
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fs, err := ReadBoundaries(f, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read %s", path)
	}
	return fs, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	return f, nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read input")
	}
	if len(data) > maxInputSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "input exceeds %d bytes", maxInputSize)
	}
	return data, nil
}

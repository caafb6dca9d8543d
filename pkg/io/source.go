package io

import (
	"bytes"
	"context"
	"net/url"

	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/errors"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/httputil"
)

// LoadDataset reads a dataset from a file path or an http(s) URL.
// URLs are downloaded through f; the format comes from the URL path.
func LoadDataset(ctx context.Context, f *httputil.Fetcher, src string, opts dataset.Options) (*dataset.Dataset, error) {
	if !httputil.IsURL(src) {
		return ImportDataset(ctx, src, opts)
	}

	format, err := urlFormat(src)
	if err != nil {
		return nil, err
	}
	data, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	raws, err := ReadDataset(bytes.NewReader(data), format)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read %s", src)
	}
	return dataset.New(ctx, raws, opts), nil
}

// LoadBoundaries reads a boundary document from a file path or an http(s) URL.
func LoadBoundaries(ctx context.Context, f *httputil.Fetcher, src string, opts geo.Options) (*geo.FeatureSet, error) {
	if !httputil.IsURL(src) {
		return ImportBoundaries(src, opts)
	}

	data, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	fs, err := geo.Decode(data, opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "read %s", src)
	}
	return fs, nil
}

func urlFormat(src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid url %q", src)
	}
	return errors.DataFormat(u.Path)
}

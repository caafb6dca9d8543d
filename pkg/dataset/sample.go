package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed sample/india.json
var sampleJSON []byte

// SampleRaw returns the raw records of the embedded India sample: twelve
// state-level values plus a few city measurements inside those states.
func SampleRaw() []RawRecord {
	var doc struct {
		Records []RawRecord `json:"records"`
	}
	dec := json.NewDecoder(bytes.NewReader(sampleJSON))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		panic(fmt.Sprintf("dataset: embedded sample: %v", err))
	}
	return doc.Records
}

// Sample returns the embedded India sample as a Dataset.
func Sample() *Dataset {
	return New(context.Background(), SampleRaw(), Options{})
}

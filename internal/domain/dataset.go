package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotObject is returned when the dataset payload is not a JSON object.
	ErrNotObject = errors.New("dataset is not a JSON object")

	// ErrEmptyDataset is returned for an empty payload.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// DatasetEntry is one member of the raw dataset object, in document order.
type DatasetEntry struct {
	Key    string
	Record RawRecord

	// Malformed is set when the member value is not a decodable object.
	Malformed bool
}

// Dataset is the parsed lookup file. Entries keep the member order of the
// source document so that collisions resolve deterministically.
type Dataset struct {
	Entries []DatasetEntry
}

// ParseDataset streams a JSON object of records. Member values that are not
// objects are kept as malformed entries rather than failing the whole load.
func ParseDataset(r io.Reader) (Dataset, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return Dataset{}, ErrEmptyDataset
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Dataset{}, ErrNotObject
	}

	var ds Dataset
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Dataset{}, fmt.Errorf("parse dataset key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Dataset{}, fmt.Errorf("parse dataset: unexpected token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Dataset{}, fmt.Errorf("parse dataset entry %q: %w", key, err)
		}
		ds.Entries = append(ds.Entries, decodeEntry(key, value))
	}

	if _, err := dec.Token(); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Dataset{}, errors.New("parse dataset: trailing data after object")
	}
	return ds, nil
}

func decodeEntry(key string, value json.RawMessage) DatasetEntry {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return DatasetEntry{Key: key, Malformed: true}
	}
	var rec RawRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return DatasetEntry{Key: key, Malformed: true}
	}
	return DatasetEntry{Key: key, Record: rec}
}

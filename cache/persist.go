package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// this file contains the code to persist the store in a single file.
//
// The file holds both mappings:
//
//	{"isins": {"US0378331005|USD": {"symbol": "AAPL", ...}, "XS...": null},
//	 "symbols": {"AAPL|USD": {...}}}
//
// null values are tombstones. The encoding is JSON unless the file name ends
// with ".msgpack".

// document is the persisted form of a Store.
type document struct {
	ISINs   entries `json:"isins" msgpack:"isins"`
	Symbols entries `json:"symbols" msgpack:"symbols"`
}

type codec interface {
	marshal(v any) ([]byte, error)
	unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) marshal(v any) ([]byte, error)      { return json.MarshalIndent(v, "", "  ") }
func (jsonCodec) unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return msgpackCodec{}
	}
	return jsonCodec{}
}

// Load restores the store from its file and returns the number of restored
// entries of each mapping.
//
// Load never fails: a missing file is a first run, and an unreadable or
// corrupt file is logged and replaced by an empty cache, the only cost being
// that the provider is asked again.
func (s *Store) Load() (isinCount, symbolCount int) {
	s.isins, s.symbols, s.dirty = make(entries), make(entries), false

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info().Str("path", s.path).Msg("no symbol cache yet, starting empty")
		return 0, 0
	}
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("cannot read symbol cache, starting empty")
		return 0, 0
	}

	doc, err := s.decode(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("corrupt symbol cache, starting empty")
		return 0, 0
	}
	s.isins, s.symbols = doc.ISINs, doc.Symbols
	return len(s.isins), len(s.symbols)
}

// decode parses and checks a persisted document.
func (s *Store) decode(data []byte) (document, error) {
	var doc document
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, fmt.Errorf("load error: empty file")
	}
	if err := s.codec.unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("load error: cannot decode: %w", err)
	}
	if doc.ISINs == nil {
		doc.ISINs = make(entries)
	}
	if doc.Symbols == nil {
		doc.Symbols = make(entries)
	}
	for name, m := range map[string]entries{"isins": doc.ISINs, "symbols": doc.Symbols} {
		for k, v := range m {
			if k == "" {
				return doc, fmt.Errorf("load error: empty key in %q", name)
			}
			if v == nil {
				continue
			}
			if err := v.Validate(); err != nil {
				return doc, fmt.Errorf("load error: entry %q in %q: %w", k, name, err)
			}
		}
	}
	return doc, nil
}

// Save writes the store to its file. The content is first written to a
// temporary file in the same folder, then renamed over the previous file, so
// that a crash never leaves a half written cache behind.
//
// Save can be called any number of times; it does nothing when nothing
// changed since the last Load or Save and the file exists.
func (s *Store) Save() error {
	if !s.dirty {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
	}

	data, err := s.codec.marshal(document{ISINs: s.isins, Symbols: s.symbols})
	if err != nil {
		return fmt.Errorf("persist error: cannot encode symbol cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist error: cannot create folder %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("persist error: cannot create temporary file: %w", err)
	}
	// Removing a renamed file fails harmlessly.
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("persist error: cannot write to file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("persist error: cannot sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("persist error: cannot close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("persist error: cannot replace %q: %w", s.path, err)
	}

	s.dirty = false
	isins, symbols := s.Len()
	s.log.Debug().Str("path", s.path).Int("isins", isins).Int("symbols", symbols).Msg("symbol cache saved")
	return nil
}

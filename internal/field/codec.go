package field

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Ext is the filename extension for persisted artifacts.
const Ext = ".mpk"

// envelope is the on-disk representation shared by both Data variants.
type envelope struct {
	Fields []*Field          `msgpack:"fields"`
	Attrs  map[string]string `msgpack:"attrs,omitempty"`
}

// Marshal encodes an artifact payload.
func Marshal(d Data) ([]byte, error) {
	env := envelope{Fields: d.DataVars()}
	if ds, ok := d.(*Dataset); ok {
		env.Attrs = ds.attrs
	}
	return msgpack.Marshal(&env)
}

// Unmarshal decodes an artifact payload. A payload holding exactly one
// variable is unwrapped to its *Field.
func Unmarshal(raw []byte) (Data, error) {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	if len(env.Fields) == 1 {
		f := env.Fields[0]
		for k, v := range env.Attrs {
			if _, ok := f.Attrs[k]; !ok {
				f.SetAttr(k, v)
			}
		}
		return f, nil
	}

	ds := NewDataset()
	for _, f := range env.Fields {
		if err := ds.Add(f); err != nil {
			return nil, err
		}
	}
	for k, v := range env.Attrs {
		ds.attrs[k] = v
	}
	return ds, nil
}

// Save persists an artifact, creating parent directories as needed. The
// payload is written to a temporary file in the target directory and renamed
// into place, so a crashed run never leaves a truncated artifact that a later
// run would mistake for a cache hit.
func Save(path string, d Data) error {
	payload, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temporary artifact for %s: %w", path, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	return nil
}

// Load reads an artifact from disk. A payload holding exactly one variable is
// unwrapped and returned as a *Field; anything else comes back as a *Dataset.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	d, err := Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding artifact %s: %w", path, err)
	}
	return d, nil
}

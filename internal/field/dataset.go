package field

import "fmt"

// Data is an artifact payload: either a single *Field or a *Dataset.
// Pipeline stages switch on the concrete type instead of probing loaded
// content for its shape.
type Data interface {
	// DataVars returns the named variables in insertion order.
	DataVars() []*Field
	// SetAttr stamps a metadata attribute on the payload.
	SetAttr(key, value string)

	data()
}

// Dataset is an ordered collection of named fields.
type Dataset struct {
	names []string
	vars  map[string]*Field
	attrs map[string]string
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		vars:  map[string]*Field{},
		attrs: map[string]string{},
	}
}

// Add registers a field under its name. Adding a second field with the same
// name is an error.
func (d *Dataset) Add(f *Field) error {
	if f.Name == "" {
		return fmt.Errorf("dataset: cannot add unnamed field")
	}
	if _, exists := d.vars[f.Name]; exists {
		return fmt.Errorf("dataset: variable %q already present", f.Name)
	}
	d.names = append(d.names, f.Name)
	d.vars[f.Name] = f
	return nil
}

// Get looks up a variable by name.
func (d *Dataset) Get(name string) (*Field, bool) {
	f, ok := d.vars[name]
	return f, ok
}

// VarNames returns the variable names in insertion order.
func (d *Dataset) VarNames() []string {
	return append([]string(nil), d.names...)
}

// Len returns the number of variables.
func (d *Dataset) Len() int { return len(d.names) }

// DataVars implements Data.
func (d *Dataset) DataVars() []*Field {
	out := make([]*Field, 0, len(d.names))
	for _, name := range d.names {
		out = append(out, d.vars[name])
	}
	return out
}

// SetAttr stamps an attribute on the dataset and on every variable, so the
// attribute survives when a single variable is later unwrapped.
func (d *Dataset) SetAttr(key, value string) {
	if d.attrs == nil {
		d.attrs = map[string]string{}
	}
	d.attrs[key] = value
	for _, f := range d.vars {
		f.SetAttr(key, value)
	}
}

// Attr looks up a dataset-level attribute.
func (d *Dataset) Attr(key string) (string, bool) {
	v, ok := d.attrs[key]
	return v, ok
}

func (d *Dataset) data() {}

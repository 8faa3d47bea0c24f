// Package snapshot reads and writes pre-extracted API snapshots as JSON or
// YAML files.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/apicompat/core/apimodel"
	"github.com/emenda-labs/apicompat/core/driver"
	apierrors "github.com/emenda-labs/apicompat/core/errors"
	"github.com/emenda-labs/apicompat/pkg/logging"
)

// Format is an on-disk snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension. Anything that
// is not .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

var _ driver.Extractor = (*Loader)(nil)

// Loader implements driver.Extractor over snapshot files.
type Loader struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewLoader creates a Loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}
	v := validator.New()
	mustRegister(v, "elementkind", func(fl validator.FieldLevel) bool {
		return apimodel.ElementKind(fl.Field().String()).Valid()
	})
	mustRegister(v, "accessibility", func(fl validator.FieldLevel) bool {
		return apimodel.Accessibility(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(validateElement, apimodel.Element{})
	return &Loader{validate: v, logger: logger}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("snapshot: registering %q validation: %v", tag, err))
	}
}

// validateElement enforces that members name their declaring type.
func validateElement(sl validator.StructLevel) {
	e := sl.Current().Interface().(apimodel.Element)
	if e.Kind.IsMember() && e.DeclaringType == "" {
		sl.ReportError(e.DeclaringType, "DeclaringType", "DeclaringType", "required_for_member", "")
	}
}

// Extract reads the snapshot file at path.
func (l *Loader) Extract(ctx context.Context, path string) (apimodel.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return apimodel.Snapshot{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(err, apierrors.CodeInvalidSnapshot, "reading snapshot").
			WithContext(apierrors.CtxPath, path)
	}

	snap, err := l.Decode(data, FormatForPath(path))
	if err != nil {
		var ce *apierrors.CodedError
		if !errors.As(err, &ce) {
			ce = apierrors.Wrap(err, apierrors.CodeInvalidSnapshot, "decoding snapshot")
		}
		return apimodel.Snapshot{}, ce.WithContext(apierrors.CtxPath, path)
	}

	if snap.Component == "" {
		snap.Component = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	l.logger.Debug("loaded snapshot", "path", path, "component", snap.Component, "elements", len(snap.Elements))
	return snap, nil
}

// Decode parses and validates a snapshot. A bare list of elements is
// accepted as well as the full snapshot object.
func (l *Loader) Decode(data []byte, format Format) (apimodel.Snapshot, error) {
	var snap apimodel.Snapshot
	var err error
	switch format {
	case FormatYAML:
		snap, err = decodeYAML(data)
	default:
		snap, err = decodeJSON(data)
	}
	if err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(err, apierrors.CodeInvalidSnapshot, "decoding snapshot")
	}

	if err := l.validate.Struct(snap); err != nil {
		return apimodel.Snapshot{}, apierrors.Wrap(describe(err, snap), apierrors.CodeInvalidSnapshot, "invalid snapshot")
	}
	return snap, nil
}

func decodeJSON(data []byte) (apimodel.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elems []apimodel.Element
		if err := strictJSON(trimmed, &elems); err != nil {
			return apimodel.Snapshot{}, err
		}
		return apimodel.Snapshot{Elements: elems}, nil
	}

	var snap apimodel.Snapshot
	if err := strictJSON(trimmed, &snap); err != nil {
		return apimodel.Snapshot{}, err
	}
	return snap, nil
}

func strictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeYAML(data []byte) (apimodel.Snapshot, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return apimodel.Snapshot{}, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var elems []apimodel.Element
		if err := node.Content[0].Decode(&elems); err != nil {
			return apimodel.Snapshot{}, err
		}
		return apimodel.Snapshot{Elements: elems}, nil
	}

	var snap apimodel.Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil && err != io.EOF {
		return apimodel.Snapshot{}, err
	}
	return snap, nil
}

// describe turns validator errors into one message per failing field,
// naming the element by index and full name.
func describe(err error, snap apimodel.Snapshot) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", locate(fe.Namespace(), snap), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// locate rewrites "Snapshot.Elements[3].Kind" to include the element's
// full name when known.
func locate(ns string, snap apimodel.Snapshot) string {
	var idx int
	var field string
	if _, err := fmt.Sscanf(ns, "Snapshot.Elements[%d].%s", &idx, &field); err != nil {
		return ns
	}
	if idx < 0 || idx >= len(snap.Elements) || snap.Elements[idx].FullName == "" {
		return fmt.Sprintf("elements[%d].%s", idx, field)
	}
	return fmt.Sprintf("elements[%d] (%s).%s", idx, snap.Elements[idx].FullName, field)
}

// Write encodes snap to w.
func Write(w io.Writer, snap apimodel.Snapshot, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		return nil
	}
}

// Save writes snap to path in the format its extension selects.
func Save(path string, snap apimodel.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	if err := Write(f, snap, FormatForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

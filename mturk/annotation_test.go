package mturk_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dschultz0/larry/codec"
	"github.com/dschultz0/larry/mturk"
	"github.com/dschultz0/larry/s3"
)

// fakeStore is an in-memory ObjectStore keyed by s3:// URI.
type fakeStore struct {
	objects map[string][]byte
	deleted []string
	writes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) WriteTemp(_ context.Context, prefix string, value any, _ codec.Format, _ ...s3.PutOption) (s3.Location, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return s3.Location{}, err
	}
	f.writes++
	loc := s3.At("temp-bucket", fmt.Sprintf("%sobj-%d", prefix, f.writes))
	f.objects[loc.String()] = data
	return loc, nil
}

func (f *fakeStore) ReadJSON(_ context.Context, loc s3.Location, v any) error {
	data, ok := f.objects[loc.String()]
	if !ok {
		return s3.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (f *fakeStore) ReadString(_ context.Context, loc s3.Location) (string, error) {
	data, ok := f.objects[loc.String()]
	if !ok {
		return "", s3.ErrNotFound
	}
	return string(data), nil
}

func (f *fakeStore) Delete(_ context.Context, loc s3.Location) error {
	f.deleted = append(f.deleted, loc.String())
	delete(f.objects, loc.String())
	return nil
}

func TestAnnotationInline(t *testing.T) {
	ctx := context.Background()
	payload := map[string]any{"batch": "b-17", "index": float64(3)}

	packed, err := mturk.PackAnnotation(ctx, nil, payload)
	if err != nil {
		t.Fatalf("PackAnnotation() error = %v", err)
	}
	if len(packed) > 255 {
		t.Fatalf("packed annotation is %d characters", len(packed))
	}
	if !strings.Contains(packed, `"payload"`) {
		t.Errorf("packed annotation = %q, want inline payload", packed)
	}

	got, err := mturk.UnpackAnnotation(ctx, nil, packed, false)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || m["batch"] != "b-17" || m["index"] != float64(3) {
		t.Errorf("UnpackAnnotation() = %#v", got)
	}
}

func TestAnnotationCompressed(t *testing.T) {
	ctx := context.Background()
	// Long but highly compressible, so it fits once deflated.
	payload := strings.Repeat("the quick brown fox ", 40)

	packed, err := mturk.PackAnnotation(ctx, nil, payload)
	if err != nil {
		t.Fatalf("PackAnnotation() error = %v", err)
	}
	if len(packed) > 255 {
		t.Fatalf("packed annotation is %d characters", len(packed))
	}
	if !strings.Contains(packed, `"payloadBytes"`) {
		t.Errorf("packed annotation = %q, want compressed payload", packed)
	}

	got, err := mturk.UnpackAnnotation(ctx, nil, packed, false)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	if got != payload {
		t.Errorf("UnpackAnnotation() = %#v", got)
	}
}

func incompressiblePayload() map[string]any {
	payload := make(map[string]any)
	for i := 0; i < 200; i++ {
		payload[fmt.Sprintf("key-%d", i*7919)] = fmt.Sprintf("%x", i*104729+i*i*13)
	}
	return payload
}

func TestAnnotationSpill(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	payload := incompressiblePayload()

	packed, err := mturk.PackAnnotation(ctx, store, payload)
	if err != nil {
		t.Fatalf("PackAnnotation() error = %v", err)
	}
	if len(packed) > 255 {
		t.Fatalf("packed annotation is %d characters", len(packed))
	}
	if !strings.Contains(packed, `"payloadURI"`) {
		t.Errorf("packed annotation = %q, want spilled payload", packed)
	}
	if store.writes != 1 {
		t.Errorf("store writes = %d, want 1", store.writes)
	}

	got, err := mturk.UnpackAnnotation(ctx, store, packed, true)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || len(m) != len(payload) {
		t.Fatalf("UnpackAnnotation() = %T with %d entries", got, len(m))
	}
	if len(store.deleted) != 1 {
		t.Errorf("spill object was not deleted: %v", store.deleted)
	}
}

func TestAnnotationSpillWithoutStore(t *testing.T) {
	ctx := context.Background()
	_, err := mturk.PackAnnotation(ctx, nil, incompressiblePayload())
	var encErr *codec.EncodeError
	if !errors.As(err, &encErr) {
		t.Errorf("PackAnnotation() error = %v, want *codec.EncodeError", err)
	}
}

func TestUnpackAnnotationMalformedBytes(t *testing.T) {
	ctx := context.Background()
	_, err := mturk.UnpackAnnotation(ctx, nil, `{"payloadBytes":"not base64!!!"}`, false)
	var decErr *codec.DecodeError
	if !errors.As(err, &decErr) {
		t.Errorf("UnpackAnnotation() error = %v, want *codec.DecodeError", err)
	}
}

func TestUnpackAnnotationPassthrough(t *testing.T) {
	ctx := context.Background()

	got, err := mturk.UnpackAnnotation(ctx, nil, "plain text annotation", false)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	if got != "plain text annotation" {
		t.Errorf("UnpackAnnotation() = %#v", got)
	}

	got, err = mturk.UnpackAnnotation(ctx, nil, "", false)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	if got != nil {
		t.Errorf("UnpackAnnotation(empty) = %#v", got)
	}

	// JSON that was never produced by PackAnnotation comes back as a map.
	got, err = mturk.UnpackAnnotation(ctx, nil, `{"custom":"value"}`, false)
	if err != nil {
		t.Fatalf("UnpackAnnotation() error = %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok || m["custom"] != "value" {
		t.Errorf("UnpackAnnotation() = %#v", got)
	}
}

package mturk

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dschultz0/larry/codec"
	"github.com/dschultz0/larry/s3"
)

// The RequesterAnnotation field holds at most 255 characters. The envelope
// wrapper costs a dozen of those, so the thresholds below leave room for
// {"payload":...} and {"payloadBytes":"..."} respectively.
const (
	inlineAnnotationLimit     = 243
	compressedAnnotationLimit = 238
)

const annotationSpillPrefix = "mturk_requester_annotation/"

type annotationEnvelope struct {
	Payload      any    `json:"payload,omitempty"`
	PayloadBytes string `json:"payloadBytes,omitempty"`
	PayloadURI   string `json:"payloadURI,omitempty"`
}

// PackAnnotation converts a payload into a string that fits the
// RequesterAnnotation field of a HIT. Small payloads are embedded directly;
// larger ones are zlib-compressed; payloads that still exceed the field
// limit are written to the store's temp bucket and referenced by URI.
// store may be nil when payloads are known to fit without spilling.
func PackAnnotation(ctx context.Context, store ObjectStore, payload any) (string, error) {
	serialized, err := annotationString(payload)
	if err != nil {
		return "", err
	}

	if len(serialized) < inlineAnnotationLimit {
		packed, err := json.Marshal(annotationEnvelope{Payload: payload})
		if err != nil {
			return "", fmt.Errorf("larry: pack annotation: %w", err)
		}
		return string(packed), nil
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write([]byte(serialized)); err != nil {
		return "", fmt.Errorf("larry: compress annotation: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("larry: compress annotation: %w", err)
	}
	compressed := base64.StdEncoding.EncodeToString(buf.Bytes())
	if len(compressed) < compressedAnnotationLimit {
		packed, err := json.Marshal(annotationEnvelope{PayloadBytes: compressed})
		if err != nil {
			return "", fmt.Errorf("larry: pack annotation: %w", err)
		}
		return string(packed), nil
	}

	if store == nil {
		return "", &codec.EncodeError{
			Format: codec.JSON,
			Err:    errors.New("annotation payload exceeds the field limit and no object store is configured"),
		}
	}
	loc, err := store.WriteTemp(ctx, annotationSpillPrefix, payload, codec.JSON)
	if err != nil {
		return "", fmt.Errorf("larry: spill annotation: %w", err)
	}
	packed, err := json.Marshal(annotationEnvelope{PayloadURI: loc.String()})
	if err != nil {
		return "", fmt.Errorf("larry: pack annotation: %w", err)
	}
	return string(packed), nil
}

func annotationString(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("larry: serialize annotation payload: %w", err)
	}
	return string(data), nil
}

// UnpackAnnotation reverses PackAnnotation. Content that was never packed
// is returned unchanged; packed content is unwrapped, decompressed, or
// fetched from S3 as needed. When deleteTemp is set the S3 spill object is
// removed after its payload is read.
func UnpackAnnotation(ctx context.Context, store ObjectStore, content string, deleteTemp bool) (any, error) {
	if content == "" {
		return nil, nil
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return content, nil
	}

	if payload, ok := envelope["payload"]; ok {
		return payload, nil
	}

	if encoded, ok := envelope["payloadBytes"].(string); ok {
		compressed, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, &codec.DecodeError{Format: codec.JSON, Err: fmt.Errorf("annotation payload bytes: %w", err)}
		}
		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, &codec.DecodeError{Format: codec.JSON, Err: fmt.Errorf("annotation payload bytes: %w", err)}
		}
		defer zr.Close()
		serialized, err := io.ReadAll(zr)
		if err != nil {
			return nil, &codec.DecodeError{Format: codec.JSON, Err: fmt.Errorf("annotation payload bytes: %w", err)}
		}
		var payload any
		if err := json.Unmarshal(serialized, &payload); err != nil {
			return string(serialized), nil
		}
		return payload, nil
	}

	if uri, ok := envelope["payloadURI"].(string); ok {
		if store == nil {
			return nil, errors.New("larry: annotation references an S3 payload and no object store is configured")
		}
		loc := s3.URI(uri)
		var payload any
		if err := store.ReadJSON(ctx, loc, &payload); err != nil {
			return nil, fmt.Errorf("larry: read annotation payload: %w", err)
		}
		if deleteTemp {
			if err := store.Delete(ctx, loc); err != nil {
				return nil, fmt.Errorf("larry: delete annotation payload: %w", err)
			}
		}
		return payload, nil
	}

	return envelope, nil
}

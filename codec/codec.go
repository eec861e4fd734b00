// Package codec maps data formats to pure encode/decode function pairs used
// by the S3 read/write façades. Format selection is an explicit tagged value
// resolved by ForKey, independent of any I/O.
package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
)

// Format identifies the data shape stored in an object.
type Format int

const (
	// Auto defers format selection to key-suffix inference.
	Auto Format = iota

	// Raw passes bytes through unchanged.
	Raw

	// Text decodes the payload as a UTF-8 string.
	Text

	// JSON parses the entire payload as a single structured value.
	JSON

	// JSONLines parses each non-blank line as an independent JSON value.
	JSONLines

	// Rows splits the payload on line breaks into a slice of strings.
	Rows

	// CSV parses the payload as comma-delimited rows.
	CSV

	// Image is stored as raw bytes; the distinct tag preserves the image
	// content type on write.
	Image
)

func (f Format) String() string {
	switch f {
	case Auto:
		return "auto"
	case Raw:
		return "raw"
	case Text:
		return "text"
	case JSON:
		return "json"
	case JSONLines:
		return "jsonlines"
	case Rows:
		return "rows"
	case CSV:
		return "csv"
	case Image:
		return "image"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ErrUnsupportedFormat is returned when an explicit format has no registered codec.
var ErrUnsupportedFormat = errors.New("larry: unsupported format")

// DecodeError reports a payload that could not be decoded as the requested
// format. Line and Offset are populated where determinable (1-based line for
// line-oriented formats, byte offset for JSON).
type DecodeError struct {
	Format Format
	Line   int
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("larry: decode %s: line %d: %v", e.Format, e.Line, e.Err)
	case e.Offset > 0:
		return fmt.Sprintf("larry: decode %s: offset %d: %v", e.Format, e.Offset, e.Err)
	default:
		return fmt.Sprintf("larry: decode %s: %v", e.Format, e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value whose shape is incompatible with the target format.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("larry: encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Codec is a pure encode/decode pair for one format. Codecs hold no state.
type Codec struct {
	Format Format

	// Decode converts payload bytes to a typed value.
	Decode func(data []byte) (any, error)

	// Encode converts a value to payload bytes.
	Encode func(value any) ([]byte, error)
}

var registry = map[Format]Codec{
	Raw:       {Format: Raw, Decode: decodeRaw, Encode: encodeRaw},
	Image:     {Format: Image, Decode: decodeRaw, Encode: encodeRaw},
	Text:      {Format: Text, Decode: decodeText, Encode: encodeText},
	JSON:      {Format: JSON, Decode: decodeJSON, Encode: encodeJSON},
	JSONLines: {Format: JSONLines, Decode: decodeJSONLines, Encode: encodeJSONLines},
	Rows:      {Format: Rows, Decode: decodeRows, Encode: encodeRows},
	CSV:       {Format: CSV, Decode: decodeCSV, Encode: encodeCSV},
}

// For returns the codec registered for an explicit format.
func For(f Format) (Codec, error) {
	c, ok := registry[f]
	if !ok {
		return Codec{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return c, nil
}

// ForKey resolves a codec from an explicit format, or infers one from the
// key suffix when f is Auto. It is a pure function of its inputs.
func ForKey(f Format, key string) (Codec, error) {
	if f == Auto {
		f = Infer(key)
	}
	return For(f)
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true, ".ico": true,
}

// Infer maps a key's suffix to a format. Unknown suffixes resolve to Raw;
// keys without a suffix resolve to Text.
func Infer(key string) Format {
	ext := strings.ToLower(path.Ext(key))
	switch ext {
	case ".json":
		return JSON
	case ".jsonl", ".ndjson":
		return JSONLines
	case ".csv":
		return CSV
	case ".txt", "":
		return Text
	}
	if imageExtensions[ext] {
		return Image
	}
	return Raw
}

func decodeRaw(data []byte) (any, error) { return data, nil }

func encodeRaw(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, &EncodeError{Format: Raw, Err: fmt.Errorf("want []byte, got %T", value)}
}

func decodeText(data []byte) (any, error) { return string(data), nil }

func encodeText(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case fmt.Stringer:
		return []byte(v.String()), nil
	}
	return nil, &EncodeError{Format: Text, Err: fmt.Errorf("want string, got %T", value)}
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &DecodeError{Format: JSON, Offset: jsonOffset(err), Err: err}
	}
	return v, nil
}

func encodeJSON(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &EncodeError{Format: JSON, Err: err}
	}
	return data, nil
}

func decodeJSONLines(data []byte) (any, error) {
	var records []any
	for i, line := range splitLines(data) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, &DecodeError{Format: JSONLines, Line: i + 1, Err: err}
		}
		records = append(records, v)
	}
	return records, nil
}

func encodeJSONLines(value any) ([]byte, error) {
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &EncodeError{Format: JSONLines, Err: fmt.Errorf("want a slice of records, got %T", value)}
	}
	var buf bytes.Buffer
	for i := 0; i < rv.Len(); i++ {
		data, err := json.Marshal(rv.Index(i).Interface())
		if err != nil {
			return nil, &EncodeError{Format: JSONLines, Err: fmt.Errorf("record %d: %w", i, err)}
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decodeRows(data []byte) (any, error) {
	var rows []string
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		rows = append(rows, string(line))
	}
	return rows, nil
}

func encodeRows(value any) ([]byte, error) {
	rows, err := stringSlice(value)
	if err != nil {
		return nil, &EncodeError{Format: Rows, Err: err}
	}
	var buf bytes.Buffer
	for _, row := range rows {
		buf.WriteString(row)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func decodeCSV(data []byte) (any, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		line := 0
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return nil, &DecodeError{Format: CSV, Line: line, Err: err}
	}
	return rows, nil
}

func encodeCSV(value any) ([]byte, error) {
	rows, ok := value.([][]string)
	if !ok {
		return nil, &EncodeError{Format: CSV, Err: fmt.Errorf("want [][]string, got %T", value)}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, &EncodeError{Format: CSV, Err: err}
	}
	return buf.Bytes(), nil
}

// splitLines splits on \n, tolerating \r\n line endings. A trailing newline
// does not produce an empty final line.
func splitLines(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimSuffix(line, []byte("\r"))
	}
	return lines
}

func stringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		rows := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("row %d: want string, got %T", i, item)
			}
			rows[i] = s
		}
		return rows, nil
	}
	return nil, fmt.Errorf("want []string, got %T", value)
}

func jsonOffset(err error) int64 {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return syntax.Offset
	}
	var unmarshalType *json.UnmarshalTypeError
	if errors.As(err, &unmarshalType) {
		return unmarshalType.Offset
	}
	return 0
}

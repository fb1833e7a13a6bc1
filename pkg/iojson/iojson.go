// Package iojson reads and writes JSON for command line output and input.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// fallback builds an error document by hand when marshaling itself failed.
func fallback(msg string, cause error) string {
	m, _ := json.Marshal(msg)
	c, _ := json.Marshal(cause.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, m, c)
}

// WriteWith writes obj as indented JSON to w. Marshaling failures are
// reported to ew.
func WriteWith(w, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, fallback("iojson: marshal failed", err))
		return err
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write writes obj to stdout.
func Write(obj any) error {
	return WriteWith(os.Stdout, os.Stderr, obj)
}

// WriteLine writes obj as a single line of JSON, for JSON lines output.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode json line: %w", err)
	}
	_, err = fmt.Fprintln(w, string(bits))
	return err
}

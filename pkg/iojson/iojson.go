// Package iojson reads and writes JSON for commands that offer a --json
// mode.
package iojson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// failure is written to the error stream when a value cannot be encoded.
type failure struct {
	Message string `json:"message"`
	Data    struct {
		JSONError string `json:"json_error"`
	} `json:"data"`
}

// WriteWith writes obj to w as indented JSON followed by a newline. HTML
// characters are left unescaped so pakdiff bodies and shell commands read
// as written. When obj cannot be encoded nothing reaches w; a failure object
// goes to ew instead and only a write error on ew is returned.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(obj); err != nil {
		f := failure{Message: "marshal output"}
		f.Data.JSONError = err.Error()
		bits, _ := json.Marshal(f)
		_, werr := fmt.Fprintln(ew, string(bits))
		return werr
	}

	_, err := w.Write(buf.Bytes())
	return err
}

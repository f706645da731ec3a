package reshape

import (
	"bytes"
	"encoding/json"
)

// Encode marshals v as compact JSON without HTML escaping, so labels such as
// " > 100" are written verbatim.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

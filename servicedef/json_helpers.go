package servicedef

import (
	"bytes"
	"encoding/json"
)

// unmarshalListOrEnvelope decodes data either as a bare JSON array into list, or as an
// object of type V that is then passed to fromEnvelope.
func unmarshalListOrEnvelope[E any, V any](data []byte, list *[]E, fromEnvelope func(*V)) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, list)
	}
	var v V
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	fromEnvelope(&v)
	return nil
}

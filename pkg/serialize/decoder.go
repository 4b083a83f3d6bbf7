package serialize

import (
	"bytes"
	"encoding/json"
)

// newNumberDecoder возвращает декодер, сохраняющий числа
// как json.Number вместо float64
func newNumberDecoder(raw json.RawMessage) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec
}

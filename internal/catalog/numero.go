package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Numero is a float64 that tolerates the upstream API's loose typing: fields
// like precio and descuento1..4 arrive sometimes as numbers, sometimes as
// strings, sometimes null. Malformed values coerce to 0; the pricing
// pipeline is total and never fails on bad catalog data.
type Numero float64

func (n *Numero) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Numero(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = 0
		return nil
	}
	*n = Numero(v)
	return nil
}

func (n Numero) Float() float64 { return float64(n) }

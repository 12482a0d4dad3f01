package services

import (
	"encoding/json"
	"strings"
)

func jsonDecode(body string, v any) error {
	return json.NewDecoder(strings.NewReader(body)).Decode(v)
}

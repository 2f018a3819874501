package robotble

import (
	"encoding/json"

	"github.com/kellegous/poop"
)

// Message is a single frame received from the robot. CmdExecd names the
// command the robot executed and Data carries its textual result.
type Message struct {
	CmdExecd string `json:"cmdExecd"`
	Data     string `json:"data"`

	// Raw holds the escaped frame as it was parsed.
	Raw json.RawMessage `json:"-"`
}

// Decode parses the raw frame of m into a value of type T. This is useful for
// firmwares that attach extra fields to the envelope.
func Decode[T any](m *Message) (T, error) {
	var v T
	if err := json.Unmarshal(m.Raw, &v); err != nil {
		return v, poop.Chain(err)
	}
	return v, nil
}

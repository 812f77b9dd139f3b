package cart

import (
	"encoding/json"
	"fmt"
)

// Marshal serializes the cart as a JSON array of lines.
func Marshal(c Cart) ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}

// Unmarshal parses data written by Marshal and checks the cart invariants.
func Unmarshal(data []byte) (Cart, error) {
	var lines []CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return Cart{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return NewCart(lines...)
}

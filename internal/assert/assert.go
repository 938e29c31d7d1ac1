// Package assert panics on broken internal invariants. It is for conditions
// that indicate a programming error, never for validating user input.
package assert

import (
	"fmt"
)

// Length panics unless value has exactly expected bytes
func Length(name, value string, expected int) {
	if len(value) != expected {
		panic(fmt.Sprintf("assert.Length %s: expected %d actual %d", name, expected, len(value)))
	}
}

// NotEmpty panics if value is empty
func NotEmpty(name, value string) {
	if value == "" {
		panic(fmt.Sprintf("assert.NotEmpty %s: value is empty", name))
	}
}

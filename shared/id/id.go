// Package id provides ID generation helpers.
package id

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

// Suffix returns a short random id fragment of the given length.
func Suffix(length int) string {
	id, err := nanoid.New(length)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return id
}

// NewSession builds a session id from the creation time plus a random
// suffix. Millisecond resolution alone can collide when two captures land
// in the same tick.
func NewSession(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), Suffix(8))
}

package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewID returns a random record ID
func NewID() (string, error) {
	return gonanoid.Generate(idCharset, 16)
}

// MustID is NewID for places that can't return an error, like the request ID
// middleware. The generator only fails if the system's random source does.
func MustID(n int) string {
	return gonanoid.MustGenerate(idCharset, n)
}

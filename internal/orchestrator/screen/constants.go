// Package screen turns screenshots into model-ready images
package screen

// Screen processing constants
const (
	// Hamming distance at or below which two frames count as the same screen
	MaxHashDistance = 5

	// pHash bit length, used to express distance as similarity
	HashBits = 64
)

// Package conv provides checked integer conversions for values that end up
// in fixed-width device buffers.
package conv

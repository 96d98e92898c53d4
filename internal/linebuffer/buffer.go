// Package linebuffer provides the reusable byte buffer that accumulates one input line at a time.
package linebuffer

import (
	"errors"
	"fmt"
)

const (
	// DefaultInitialCapacity is the capacity a new buffer starts with.
	DefaultInitialCapacity = 80
	// DefaultGrowthFactor is the multiplier applied to the capacity when the buffer is full.
	DefaultGrowthFactor = 1.5

	invalidGrowthFactorFormat = "growth factor must be greater than 1, got %v"
	invalidCapacityFormat     = "initial capacity must not be negative, got %d"
	invalidMaxLengthFormat    = "max length must not be negative, got %d"
	invalidShrinkFormat       = "shrink threshold must not be negative, got %d"
	shrinkBelowCapacityFormat = "shrink threshold %d is below initial capacity %d"
)

// ErrLineTooLong is returned when a line exceeds the configured maximum length.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// Options configures a Buffer. Zero values select the defaults.
type Options struct {
	InitialCapacity int
	GrowthFactor    float64
	// MaxLength bounds the logical length of a single line. Zero means unlimited.
	MaxLength int
	// ShrinkThreshold makes Reset release backing arrays larger than the threshold.
	// Zero disables shrinking. It may not be below InitialCapacity.
	ShrinkThreshold int
}

// Validate reports whether the options can construct a buffer.
func (options Options) Validate() error {
	if options.InitialCapacity < 0 {
		return fmt.Errorf(invalidCapacityFormat, options.InitialCapacity)
	}
	if options.GrowthFactor != 0 && options.GrowthFactor <= 1 {
		return fmt.Errorf(invalidGrowthFactorFormat, options.GrowthFactor)
	}
	if options.MaxLength < 0 {
		return fmt.Errorf(invalidMaxLengthFormat, options.MaxLength)
	}
	if options.ShrinkThreshold < 0 {
		return fmt.Errorf(invalidShrinkFormat, options.ShrinkThreshold)
	}
	// A threshold below the starting capacity would reallocate on every Reset.
	initialCapacity := options.withDefaults().InitialCapacity
	if options.ShrinkThreshold > 0 && options.ShrinkThreshold < initialCapacity {
		return fmt.Errorf(shrinkBelowCapacityFormat, options.ShrinkThreshold, initialCapacity)
	}
	return nil
}

func (options Options) withDefaults() Options {
	result := options
	if result.InitialCapacity <= 0 {
		result.InitialCapacity = DefaultInitialCapacity
	}
	if result.GrowthFactor <= 1 {
		result.GrowthFactor = DefaultGrowthFactor
	}
	return result
}

// Buffer is a growable byte sequence whose logical length is tracked separately from its capacity.
type Buffer struct {
	options Options
	data    []byte
	size    int
}

// New constructs a Buffer with the provided options.
func New(options Options) *Buffer {
	resolved := options.withDefaults()
	return &Buffer{
		options: resolved,
		data:    make([]byte, resolved.InitialCapacity),
	}
}

// Append adds one byte to the end of the line, growing the backing array geometrically when full.
func (buffer *Buffer) Append(value byte) error {
	if buffer.options.MaxLength > 0 && buffer.size >= buffer.options.MaxLength {
		return fmt.Errorf("%w (%d bytes)", ErrLineTooLong, buffer.options.MaxLength)
	}
	if buffer.size == len(buffer.data) {
		buffer.grow(buffer.size + 1)
	}
	buffer.data[buffer.size] = value
	buffer.size++
	return nil
}

func (buffer *Buffer) grow(required int) {
	capacity := len(buffer.data)
	for capacity < required {
		next := int(float64(capacity) * buffer.options.GrowthFactor)
		if next <= capacity {
			next = capacity + 1
		}
		capacity = next
	}
	grown := make([]byte, capacity)
	copy(grown, buffer.data[:buffer.size])
	buffer.data = grown
}

// Reset empties the line while keeping the allocation for reuse.
func (buffer *Buffer) Reset() {
	buffer.size = 0
	if buffer.options.ShrinkThreshold > 0 && len(buffer.data) > buffer.options.ShrinkThreshold {
		buffer.data = make([]byte, buffer.options.InitialCapacity)
	}
}

// Bytes returns the current line. The slice is only valid until the next Append or Reset.
func (buffer *Buffer) Bytes() []byte {
	return buffer.data[:buffer.size]
}

// Len returns the logical length of the line.
func (buffer *Buffer) Len() int {
	return buffer.size
}

// Cap returns the allocated capacity.
func (buffer *Buffer) Cap() int {
	return len(buffer.data)
}

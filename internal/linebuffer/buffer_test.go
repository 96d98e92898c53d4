package linebuffer_test

import (
	"errors"
	"testing"

	"github.com/temirov/spp/internal/linebuffer"
)

func appendAll(t *testing.T, buffer *linebuffer.Buffer, input string) {
	t.Helper()
	for index := 0; index < len(input); index++ {
		if err := buffer.Append(input[index]); err != nil {
			t.Fatalf("append byte %d: %v", index, err)
		}
	}
}

func TestBufferGrowsGeometrically(t *testing.T) {
	buffer := linebuffer.New(linebuffer.Options{InitialCapacity: 4, GrowthFactor: 1.5})
	capacities := []int{buffer.Cap()}
	for index := 0; index < 20; index++ {
		if err := buffer.Append('x'); err != nil {
			t.Fatalf("append: %v", err)
		}
		if buffer.Len() > buffer.Cap() {
			t.Fatalf("length %d exceeds capacity %d", buffer.Len(), buffer.Cap())
		}
		if current := buffer.Cap(); current != capacities[len(capacities)-1] {
			capacities = append(capacities, current)
		}
	}
	expected := []int{4, 6, 9, 13, 19, 28}
	if len(capacities) != len(expected) {
		t.Fatalf("expected capacities %v, got %v", expected, capacities)
	}
	for index := range expected {
		if capacities[index] != expected[index] {
			t.Fatalf("expected capacities %v, got %v", expected, capacities)
		}
	}
}

func TestBufferResetKeepsAllocation(t *testing.T) {
	buffer := linebuffer.New(linebuffer.Options{InitialCapacity: 2})
	appendAll(t, buffer, "hello world")
	grownCapacity := buffer.Cap()
	buffer.Reset()
	if buffer.Len() != 0 {
		t.Fatalf("expected empty buffer after reset, got %d bytes", buffer.Len())
	}
	if buffer.Cap() != grownCapacity {
		t.Fatalf("expected capacity %d to be kept, got %d", grownCapacity, buffer.Cap())
	}
	appendAll(t, buffer, "ab")
	if string(buffer.Bytes()) != "ab" {
		t.Fatalf("expected %q, got %q", "ab", buffer.Bytes())
	}
}

func TestBufferShrinksAfterOversizedLine(t *testing.T) {
	buffer := linebuffer.New(linebuffer.Options{InitialCapacity: 8, ShrinkThreshold: 16})
	appendAll(t, buffer, "a line well beyond sixteen bytes")
	buffer.Reset()
	if buffer.Cap() != 8 {
		t.Fatalf("expected capacity to return to 8, got %d", buffer.Cap())
	}
}

func TestBufferRejectsLinesBeyondMaximum(t *testing.T) {
	buffer := linebuffer.New(linebuffer.Options{MaxLength: 3})
	appendAll(t, buffer, "abc")
	err := buffer.Append('d')
	if !errors.Is(err, linebuffer.ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
	if string(buffer.Bytes()) != "abc" {
		t.Fatalf("expected line to stay %q, got %q", "abc", buffer.Bytes())
	}
}

func TestOptionsValidate(t *testing.T) {
	testCases := []struct {
		name      string
		options   linebuffer.Options
		expectErr bool
	}{
		{name: "defaults", options: linebuffer.Options{}},
		{name: "custom", options: linebuffer.Options{InitialCapacity: 16, GrowthFactor: 2}},
		{name: "negative capacity", options: linebuffer.Options{InitialCapacity: -1}, expectErr: true},
		{name: "factor of one", options: linebuffer.Options{GrowthFactor: 1}, expectErr: true},
		{name: "negative max length", options: linebuffer.Options{MaxLength: -1}, expectErr: true},
		{name: "negative shrink threshold", options: linebuffer.Options{ShrinkThreshold: -1}, expectErr: true},
		{name: "shrink threshold below initial capacity", options: linebuffer.Options{InitialCapacity: 64, ShrinkThreshold: 32}, expectErr: true},
		{name: "shrink threshold below default capacity", options: linebuffer.Options{ShrinkThreshold: 10}, expectErr: true},
		{name: "shrink threshold equal to capacity", options: linebuffer.Options{InitialCapacity: 32, ShrinkThreshold: 32}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.options.Validate()
			if testCase.expectErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !testCase.expectErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

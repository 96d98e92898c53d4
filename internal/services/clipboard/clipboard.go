// Package clipboard copies preprocessed output to the system clipboard.
package clipboard

import (
	"bytes"

	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)

// Sink is an io.Writer that collects output and hands it to a Copier on Flush.
type Sink struct {
	copier Copier
	buffer bytes.Buffer
}

// NewSink returns a Sink backed by copier.
func NewSink(copier Copier) *Sink {
	return &Sink{copier: copier}
}

// Write appends data to the pending clipboard content.
func (sink *Sink) Write(data []byte) (int, error) {
	return sink.buffer.Write(data)
}

// Flush copies everything written so far and clears the pending content.
func (sink *Sink) Flush() error {
	content := sink.buffer.String()
	sink.buffer.Reset()
	return sink.copier.Copy(content)
}

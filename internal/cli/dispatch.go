package cli

import (
	"io"

	"golang.org/x/sync/errgroup"
)

// dispatchOutput runs produce against the write end of a pipe while consume drains the read end.
// A failure on either side closes the pipe with that error so the other side stops too.
func dispatchOutput(produce func(io.Writer) error, consume func(io.Reader) error) error {
	var group errgroup.Group
	pipeReader, pipeWriter := io.Pipe()

	group.Go(func() error {
		produceError := produce(pipeWriter)
		_ = pipeWriter.CloseWithError(produceError)
		return produceError
	})

	group.Go(func() error {
		consumeError := consume(pipeReader)
		_ = pipeReader.CloseWithError(consumeError)
		return consumeError
	})

	return group.Wait()
}

package utils

import (
	"io"
	"sync"
)

type flushableWriter interface {
	Flush() error
}

// FlushingWriter makes buffered output visible immediately by invoking Flush
// after every write when the wrapped writer supports it.
type FlushingWriter struct {
	writer  io.Writer
	flusher flushableWriter
	mutex   sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Writers that are already
// flushing wrappers are returned unchanged.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return nil
	}
	if _, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return writer
	}

	wrappedWriter := &FlushingWriter{writer: writer}
	if flusher, supportsFlush := writer.(flushableWriter); supportsFlush {
		wrappedWriter.flusher = flusher
	}
	return wrappedWriter
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushingWriter.flusher != nil {
		if flushError := flushingWriter.flusher.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}

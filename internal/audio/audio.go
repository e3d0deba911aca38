// Package audio models a scoped voice capture: a device is acquired when
// recording starts and released when it stops, on every path.
package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/abhisek/psychometric/internal/assessment"
)

// ErrEmptyRecording is returned when the device produced no audio.
var ErrEmptyRecording = errors.New("recording is empty")

// Recording is a captured voice clip.
type Recording struct {
	MIMEType string
	Data     []byte
}

// Stream is an open capture handle. Close must unblock a pending Read.
type Stream interface {
	io.ReadCloser
	MIMEType() string
}

// Device hands out capture streams. Open fails when access is denied.
type Device interface {
	Name() string
	Open(ctx context.Context) (Stream, error)
}

// Capture records from dev until stop is closed, the stream ends, or ctx is
// done. The stream is always closed before Capture returns. A failed Open
// is reported as *assessment.DeviceAccessError.
func Capture(ctx context.Context, dev Device, stop <-chan struct{}) (Recording, error) {
	stream, err := dev.Open(ctx)
	if err != nil {
		var denied *assessment.DeviceAccessError
		if errors.As(err, &denied) {
			return Recording{}, err
		}
		return Recording{}, &assessment.DeviceAccessError{Device: dev.Name(), Err: err}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if cerr := stream.Close(); cerr != nil {
				slog.Debug("closing audio stream", "device", dev.Name(), "error", cerr)
			}
		})
	}
	defer release()

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(&buf, stream)
		done <- err
	}()

	select {
	case err = <-done:
		if err != nil {
			return Recording{}, err
		}
	case <-stop:
		release()
		// Reads interrupted by Close are the normal end of a stopped recording.
		<-done
	case <-ctx.Done():
		release()
		<-done
		return Recording{}, ctx.Err()
	}

	if buf.Len() == 0 {
		return Recording{}, ErrEmptyRecording
	}
	mimeType := stream.MIMEType()
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return Recording{MIMEType: mimeType, Data: buf.Bytes()}, nil
}

// DefaultMIMEType is assumed when a stream does not say what it carries.
const DefaultMIMEType = "audio/webm"

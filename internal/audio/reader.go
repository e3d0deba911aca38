package audio

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrDeviceBusy is returned by Open when the device already has a stream.
var ErrDeviceBusy = errors.New("device already in use")

// ReaderDevice exposes an already recorded source, such as an uploaded
// request body, as a single-use capture device.
type ReaderDevice struct {
	name     string
	mimeType string

	mu     sync.Mutex
	r      io.ReadCloser
	opened bool
}

// NewReaderDevice wraps r. The device can be opened once.
func NewReaderDevice(name, mimeType string, r io.ReadCloser) *ReaderDevice {
	return &ReaderDevice{name: name, mimeType: mimeType, r: r}
}

func (d *ReaderDevice) Name() string { return d.name }

func (d *ReaderDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opened {
		return nil, ErrDeviceBusy
	}
	d.opened = true
	return &readerStream{ReadCloser: d.r, mimeType: d.mimeType}, nil
}

type readerStream struct {
	io.ReadCloser
	mimeType string
}

func (s *readerStream) MIMEType() string { return s.mimeType }

package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Camera is acquired on consent and released on stop.  No frames are
// read: the scan result is synthetic.
type Camera interface {
	Open(ctx context.Context) error
	Close() error
}

// DeviceCamera holds a video device node open while consent lasts.
type DeviceCamera struct {
	Path string

	mu sync.Mutex
	f  *os.File
}

func (c *DeviceCamera) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f != nil {
		return nil
	}
	f, err := os.OpenFile(c.Path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Path, err)
	}
	c.f = f
	return nil
}

func (c *DeviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

// IsOpen reports whether the device is held.
func (c *DeviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.f != nil
}

var errNoCamera = errors.New("no camera configured")

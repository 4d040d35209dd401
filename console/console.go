// Package console writes diagnostic bytes to a platform console during bring-up.
package console

import (
	"github.com/cockroachdb/errors"
)

// Device is the byte-level primitive a platform console is built on
//
//go:generate mockgen -source console.go -destination ./mocks/device.go -package mock_console
type Device interface {
	// PutByte writes a single byte to the device
	PutByte(b byte) error
	// GetByte reads a single byte from the device. ok is false when no input is available.
	GetByte() (b byte, ok bool, err error)
}

var (
	// ColorRed is the ANSI control sequence that selects red text
	ColorRed = []byte("\x1b[31m")
	// ColorReset is the ANSI control sequence that restores default text attributes
	ColorReset = []byte("\x1b[0m")
)

// CreateOptions contains optional settings when creating a console
type CreateOptions struct {
	// Color is the control sequence emitted once before the first byte of output. A nil Color
	// selects ColorRed; an empty, non-nil Color disables coloring.
	Color []byte
}

// Console writes to a Device, emitting the configured color sequence once before any output.
// The color state belongs to the Console, so two consoles on the same device each emit it once.
type Console struct {
	device   Device
	color    []byte
	colorSet bool
}

// New creates a console over device
func New(device Device, options CreateOptions) *Console {
	color := options.Color
	if color == nil {
		color = ColorRed
	}

	return &Console{
		device: device,
		color:  color,
	}
}

// PutByte writes b to the device, preceded by the color sequence if it has not been emitted yet
func (c *Console) PutByte(b byte) error {
	if !c.colorSet {
		for _, cb := range c.color {
			err := c.device.PutByte(cb)
			if err != nil {
				return errors.Wrap(err, "failed to write console color")
			}
		}
		c.colorSet = true
	}

	return c.device.PutByte(b)
}

// GetByte reads a byte from the device. ok is false when no input is available.
func (c *Console) GetByte() (byte, bool, error) {
	return c.device.GetByte()
}

// Write implements io.Writer by writing each byte of p in order
func (c *Console) Write(p []byte) (int, error) {
	for i, b := range p {
		err := c.PutByte(b)
		if err != nil {
			return i, err
		}
	}

	return len(p), nil
}

// Reset emits ColorReset if the color sequence has been emitted, so that the next byte of output
// emits it again.
func (c *Console) Reset() error {
	if !c.colorSet || len(c.color) == 0 {
		return nil
	}

	for _, b := range ColorReset {
		err := c.device.PutByte(b)
		if err != nil {
			return errors.Wrap(err, "failed to reset console color")
		}
	}
	c.colorSet = false
	return nil
}

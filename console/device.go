package console

import (
	"io"

	"github.com/cockroachdb/errors"
	tty "github.com/mattn/go-tty"
)

// StreamDevice is a Device over a byte source and a byte sink. The end of the source is
// reported as no input.
type StreamDevice struct {
	In  io.ByteReader
	Out io.Writer
}

var _ Device = StreamDevice{}

func (d StreamDevice) PutByte(b byte) error {
	_, err := d.Out.Write([]byte{b})
	return err
}

func (d StreamDevice) GetByte() (byte, bool, error) {
	if d.In == nil {
		return 0, false, nil
	}

	b, err := d.In.ReadByte()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	return b, true, nil
}

// TTYDevice is a Device over a terminal. Reads block until the terminal has input.
type TTYDevice struct {
	tty *tty.TTY
}

var _ Device = &TTYDevice{}

// OpenTTY opens the terminal at path, or the controlling terminal when path is empty
func OpenTTY(path string) (*TTYDevice, error) {
	var t *tty.TTY
	var err error
	if path == "" {
		t, err = tty.Open()
	} else {
		t, err = tty.OpenDevice(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open terminal %q", path)
	}

	return &TTYDevice{tty: t}, nil
}

func (d *TTYDevice) PutByte(b byte) error {
	_, err := d.tty.Output().Write([]byte{b})
	return err
}

func (d *TTYDevice) GetByte() (byte, bool, error) {
	r, err := d.tty.ReadRune()
	if errors.Is(err, io.EOF) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	return byte(r), true, nil
}

// Close releases the terminal
func (d *TTYDevice) Close() error {
	return d.tty.Close()
}

package selftest

import (
	"errors"
	"fmt"

	"tk/ddf"
	"tk/ddf/testdrv"
	"tk/kernel"
)

// fixed is a driver without power control.
type fixed struct{}

const fixedMajor = 0xfe

func (fixed) Name() string                 { return "fixed" }
func (fixed) Major() uint32                { return fixedMajor }
func (fixed) Minor() uint32                { return 0 }
func (fixed) Init() error                  { return nil }
func (fixed) Open()                        {}
func (fixed) Close()                       {}
func (fixed) Read(p []byte) (int, error)   { return 0, nil }
func (fixed) Write(p []byte) (int, error)  { return len(p), nil }
func (fixed) Ioctl(code uint32) *ddf.Ioctl { return nil }

type driverCases struct {
	k *kernel.Kernel
}

// open returns an open handle on a fresh loopback driver.
func (d driverCases) open() (*ddf.Table, *ddf.Handle, error) {
	t, err := ddf.NewTable(d.k, testdrv.New(), fixed{})
	if err != nil {
		return nil, nil, err
	}
	h, err := t.Open(testdrv.Major, testdrv.Minor)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	return t, h, nil
}

func buf() []byte { return make([]byte, testdrv.BufSize) }

// allOps runs every handle operation on h and expects want from each.
func allOps(h *ddf.Handle, want error) error {
	n, err := h.Read(buf())
	if n != -1 {
		return fmt.Errorf("read returned %d, want -1", n)
	}
	if err := expect("read", err, want); err != nil {
		return err
	}
	n, err = h.Write(buf())
	if n != -1 {
		return fmt.Errorf("write returned %d, want -1", n)
	}
	if err := expect("write", err, want); err != nil {
		return err
	}
	_, stateErr := h.PowerState()
	return firstErr(
		expect("ioctl", h.Ioctl(testdrv.IoctlInOut, buf(), buf()), want),
		expect("power up", h.PowerUp(), want),
		expect("power down", h.PowerDown(), want),
		expect("power state", stateErr, want),
		expect("close", h.Close(), want),
	)
}

func (d driverCases) nilOps() error {
	return allOps(nil, ddf.ErrNull)
}

func (d driverCases) closedOps() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return allOps(h, ddf.ErrClosed)
}

func (d driverCases) poweredDownOps() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	if err := h.PowerDown(); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	if n, err := h.Read(buf()); n != -1 || !errors.Is(err, ddf.ErrNoPower) {
		return fmt.Errorf("read: got %d, %v", n, err)
	}
	if n, err := h.Write(buf()); n != -1 || !errors.Is(err, ddf.ErrNoPower) {
		return fmt.Errorf("write: got %d, %v", n, err)
	}
	return expect("ioctl", h.Ioctl(testdrv.IoctlNone, nil, nil), ddf.ErrNoPower)
}

func (d driverCases) nilBuffers() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	if n, err := h.Read(nil); n != -1 || !errors.Is(err, ddf.ErrNull) {
		return fmt.Errorf("read: got %d, %v", n, err)
	}
	if n, err := h.Write(nil); n != -1 || !errors.Is(err, ddf.ErrNull) {
		return fmt.Errorf("write: got %d, %v", n, err)
	}
	return nil
}

func (d driverCases) doubleOpen() error {
	t, _, err := d.open()
	if err != nil {
		return err
	}
	h, err := t.Open(testdrv.Major, testdrv.Minor)
	if h != nil {
		return errors.New("second open returned a handle")
	}
	return expect("open", err, ddf.ErrInUse)
}

func (d driverCases) ioctlBadCode() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	return expect("ioctl", h.Ioctl(0xffff, nil, nil), ddf.ErrIoctlBadCode)
}

func (d driverCases) ioctlBadSizes() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	small := make([]byte, testdrv.BufSize-1)
	return firstErr(
		expect("ioctl in", h.Ioctl(testdrv.IoctlIn, small, nil), ddf.ErrIoctlInBufBadSize),
		expect("ioctl out", h.Ioctl(testdrv.IoctlOut, nil, small), ddf.ErrIoctlOutBufBadSize),
		expect("ioctl in/out", h.Ioctl(testdrv.IoctlInOut, buf(), small), ddf.ErrIoctlOutBufBadSize),
	)
}

func (d driverCases) ioctlNilBuffers() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	return firstErr(
		expect("ioctl in", h.Ioctl(testdrv.IoctlIn, nil, nil), ddf.ErrIoctlInBufNull),
		expect("ioctl out", h.Ioctl(testdrv.IoctlOut, nil, nil), ddf.ErrIoctlOutBufNull),
		expect("ioctl in/out", h.Ioctl(testdrv.IoctlInOut, buf(), nil), ddf.ErrIoctlOutBufNull),
	)
}

func (d driverCases) doublePowerUp() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	return firstErr(
		expect("power down", h.PowerDown(), nil),
		expect("power up", h.PowerUp(), nil),
		expect("power up again", h.PowerUp(), ddf.ErrAlreadyPoweredOn),
	)
}

func (d driverCases) doublePowerDown() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	return firstErr(
		expect("power down", h.PowerDown(), nil),
		expect("power down again", h.PowerDown(), ddf.ErrAlreadyPoweredOff),
	)
}

func (d driverCases) powerUnsupported() error {
	t, _, err := d.open()
	if err != nil {
		return err
	}
	h, err := t.Open(fixedMajor, 0)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	// The device reports PowerOn, so PowerUp would fail as already on
	// before the driver is asked.
	if err := expect("power down", h.PowerDown(), ddf.ErrPowerStatesUnsupported); err != nil {
		return err
	}
	if err := expect("power down again", h.PowerDown(), ddf.ErrPowerStatesUnsupported); err != nil {
		return err
	}
	_, err = h.PowerState()
	return expect("power state", err, ddf.ErrPowerStatesUnsupported)
}

func (d driverCases) readWriteVerify() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	in := buf()
	for i := range in {
		in[i] = byte(i)
	}
	if n, err := h.Write(in); n != len(in) || err != nil {
		return fmt.Errorf("write: got %d, %v", n, err)
	}
	out := buf()
	if n, err := h.Read(out); n != len(out) || err != nil {
		return fmt.Errorf("read: got %d, %v", n, err)
	}
	for i := range out {
		if out[i] != byte(i) {
			return fmt.Errorf("byte %d = %d, want %d", i, out[i], i)
		}
	}
	return nil
}

func (d driverCases) closeVerify() error {
	t, h, err := d.open()
	if err != nil {
		return err
	}
	if err := h.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if _, err := t.Open(testdrv.Major, testdrv.Minor); err != nil {
		return fmt.Errorf("reopen: %w", err)
	}
	return nil
}

func (d driverCases) powerStateVerify() error {
	_, h, err := d.open()
	if err != nil {
		return err
	}
	state := func(want ddf.PowerState) error {
		got, err := h.PowerState()
		if err != nil {
			return fmt.Errorf("power state: %w", err)
		}
		if got != want {
			return fmt.Errorf("power state = %v, want %v", got, want)
		}
		return nil
	}
	return firstErr(
		state(ddf.PowerOn),
		expect("power down", h.PowerDown(), nil),
		state(ddf.PowerOff),
		expect("power up", h.PowerUp(), nil),
		state(ddf.PowerOn),
	)
}

func (d driverCases) ioctl(code uint32, inSize, outSize int) func() error {
	return func() error {
		_, h, err := d.open()
		if err != nil {
			return err
		}
		var in, out []byte
		if inSize > 0 {
			in = make([]byte, inSize)
		}
		if outSize > 0 {
			out = make([]byte, outSize)
		}
		return expect("ioctl", h.Ioctl(code, in, out), nil)
	}
}

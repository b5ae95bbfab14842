// Package ddf is the device driver framework: a fixed table of drivers
// addressed by major/minor number, opened exclusively and called through
// handles that serialize every driver operation with a semaphore.
package ddf

import (
	"fmt"

	"tk/kernel"
)

// PowerState is the power state of a device.
type PowerState uint8

const (
	PowerOn PowerState = iota
	PowerOff
)

func (s PowerState) String() string {
	switch s {
	case PowerOn:
		return "on"
	case PowerOff:
		return "off"
	default:
		return fmt.Sprintf("PowerState(%d)", uint8(s))
	}
}

// IoctlType says which buffers an ioctl takes.
type IoctlType uint8

const (
	IoctlNone IoctlType = iota
	IoctlIn
	IoctlOut
	IoctlInOut
)

// Ioctl describes one driver control code. The framework checks buffer
// presence and sizes before Op runs.
type Ioctl struct {
	Type    IoctlType
	InSize  int
	OutSize int
	Op      func(in, out []byte) error
}

// Driver is a device driver.
type Driver interface {
	Name() string
	Major() uint32
	Minor() uint32

	// Init runs once when the driver table is built.
	Init() error
	Open()
	Close()
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	// Ioctl returns the description of code, or nil if code is unknown.
	Ioctl(code uint32) *Ioctl
}

// PowerController is implemented by drivers that can be powered down.
type PowerController interface {
	PowerUp() error
	PowerDown() error
}

// Handle is an open device. A Table has one Handle per driver; Open hands it
// out and Close returns it.
type Handle struct {
	table *Table
	drv   Driver
	sem   kernel.Semaphore
	used  bool
	power PowerState
}

// Table is the driver table.
type Table struct {
	k       *kernel.Kernel
	entries []*Handle
}

// NewTable initializes every driver, powered on and closed.
func NewTable(k *kernel.Kernel, drivers ...Driver) (*Table, error) {
	t := &Table{k: k}
	for _, d := range drivers {
		if err := d.Init(); err != nil {
			return nil, fmt.Errorf("ddf: init %s: %w", d.Name(), err)
		}
		h := &Handle{table: t, drv: d, power: PowerOn}
		h.sem.Init(k, 1)
		t.entries = append(t.entries, h)
	}
	return t, nil
}

// Drivers returns the drivers in table order.
func (t *Table) Drivers() []Driver {
	out := make([]Driver, 0, len(t.entries))
	for _, h := range t.entries {
		out = append(out, h.drv)
	}
	return out
}

// Open returns the handle of the driver with the given numbers.
func (t *Table) Open(major, minor uint32) (*Handle, error) {
	var h *Handle
	for _, e := range t.entries {
		if e.drv.Major() == major && e.drv.Minor() == minor {
			h = e
			break
		}
	}
	if h == nil {
		return nil, ErrNoDevice
	}
	if h.used {
		return nil, ErrInUse
	}

	h.drv.Open()
	h.used = true
	return h, nil
}

func (t *Table) owns(h *Handle) bool {
	for _, e := range t.entries {
		if e == h {
			return true
		}
	}
	return false
}

// Driver returns the driver behind h.
func (h *Handle) Driver() Driver {
	if h == nil {
		return nil
	}
	return h.drv
}

// Close releases h so the device can be opened again.
func (h *Handle) Close() error {
	if h == nil {
		return ErrNull
	}
	if !h.used {
		return ErrClosed
	}
	if h.table == nil || !h.table.owns(h) {
		return ErrUnexpected
	}

	if err := h.serialize(func() error {
		h.drv.Close()
		return nil
	}); err != nil {
		return err
	}

	h.used = false
	return nil
}

// Read reads from the device into p.
func (h *Handle) Read(p []byte) (int, error) {
	if err := h.checkIO(p); err != nil {
		return -1, err
	}

	var n int
	err := h.serialize(func() error {
		var err error
		n, err = h.drv.Read(p)
		return err
	})
	return n, err
}

// Write writes p to the device.
func (h *Handle) Write(p []byte) (int, error) {
	if err := h.checkIO(p); err != nil {
		return -1, err
	}

	var n int
	err := h.serialize(func() error {
		var err error
		n, err = h.drv.Write(p)
		return err
	})
	return n, err
}

func (h *Handle) checkIO(p []byte) error {
	if h == nil || p == nil {
		return ErrNull
	}
	if !h.used {
		return ErrClosed
	}
	if h.power == PowerOff {
		return ErrNoPower
	}
	return nil
}

// Ioctl issues control code with the given buffers. Buffers an ioctl does
// not take are ignored.
func (h *Handle) Ioctl(code uint32, in, out []byte) error {
	if h == nil {
		return ErrNull
	}
	if !h.used {
		return ErrClosed
	}
	if h.power == PowerOff {
		return ErrNoPower
	}

	info := h.drv.Ioctl(code)
	if info == nil {
		return ErrIoctlBadCode
	}

	if info.Type == IoctlIn || info.Type == IoctlInOut {
		if in == nil {
			return ErrIoctlInBufNull
		}
		if len(in) != info.InSize {
			return ErrIoctlInBufBadSize
		}
	}
	if info.Type == IoctlOut || info.Type == IoctlInOut {
		if out == nil {
			return ErrIoctlOutBufNull
		}
		if len(out) != info.OutSize {
			return ErrIoctlOutBufBadSize
		}
	}

	return h.serialize(func() error { return info.Op(in, out) })
}

// PowerUp powers the device on.
func (h *Handle) PowerUp() error {
	if h == nil {
		return ErrNull
	}
	if !h.used {
		return ErrClosed
	}
	if h.power == PowerOn {
		return ErrAlreadyPoweredOn
	}
	pc, ok := h.drv.(PowerController)
	if !ok {
		return ErrPowerStatesUnsupported
	}

	if err := h.serialize(pc.PowerUp); err != nil {
		return err
	}
	h.power = PowerOn
	return nil
}

// PowerDown powers the device off. Read, Write and Ioctl fail with
// ErrNoPower until it is powered up again.
func (h *Handle) PowerDown() error {
	if h == nil {
		return ErrNull
	}
	if !h.used {
		return ErrClosed
	}
	if h.power == PowerOff {
		return ErrAlreadyPoweredOff
	}
	pc, ok := h.drv.(PowerController)
	if !ok {
		return ErrPowerStatesUnsupported
	}

	if err := h.serialize(pc.PowerDown); err != nil {
		return err
	}
	h.power = PowerOff
	return nil
}

// PowerState returns the device power state.
func (h *Handle) PowerState() (PowerState, error) {
	if h == nil {
		return PowerOff, ErrNull
	}
	if !h.used {
		return PowerOff, ErrClosed
	}
	if _, ok := h.drv.(PowerController); !ok {
		return PowerOff, ErrPowerStatesUnsupported
	}
	return h.power, nil
}

// serialize runs fn holding the handle's semaphore.
func (h *Handle) serialize(fn func() error) error {
	if err := h.sem.Down(); err != nil {
		return fmt.Errorf("ddf: %s: %w", h.drv.Name(), err)
	}
	err := fn()
	if uerr := h.sem.Up(); uerr != nil && err == nil {
		err = fmt.Errorf("ddf: %s: %w", h.drv.Name(), uerr)
	}
	return err
}

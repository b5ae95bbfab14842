package ddf

import "errors"

var (
	ErrNull                   = errors.New("ddf: null argument")
	ErrNoDevice               = errors.New("ddf: no such device")
	ErrInUse                  = errors.New("ddf: device in use")
	ErrClosed                 = errors.New("ddf: handle closed")
	ErrUnexpected             = errors.New("ddf: unexpected handle")
	ErrNoPower                = errors.New("ddf: device powered off")
	ErrIoctlBadCode           = errors.New("ddf: bad ioctl code")
	ErrIoctlInBufNull         = errors.New("ddf: ioctl input buffer missing")
	ErrIoctlInBufBadSize      = errors.New("ddf: ioctl input buffer size mismatch")
	ErrIoctlOutBufNull        = errors.New("ddf: ioctl output buffer missing")
	ErrIoctlOutBufBadSize     = errors.New("ddf: ioctl output buffer size mismatch")
	ErrAlreadyPoweredOn       = errors.New("ddf: already powered on")
	ErrAlreadyPoweredOff      = errors.New("ddf: already powered off")
	ErrPowerStatesUnsupported = errors.New("ddf: power states unsupported")
)

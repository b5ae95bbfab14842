// Package selftest holds the checks run at boot before the kernel starts.
//
// The scheduler and thread creation checks run on a scratch pool of three
// threads, the driver checks on a scratch table holding the loopback driver.
// Neither touches the kernel's own threads or drivers.
package selftest

import (
	"errors"
	"fmt"

	"tk/ddf/testdrv"
	"tk/kernel"
)

// PoolSize is the number of threads in the scratch pool.
const PoolSize = 3

// Printer receives the report.
type Printer interface {
	RawPrintString(s string)
	RawPrintDecimal(x uint64)
}

// Case is one boot check.
type Case struct {
	Desc string
	Run  func() error
}

// Run executes every case, printing "<desc>... ok" or "<desc>... fail!" for
// each and a summary line at the end.
func Run(out Printer, k *kernel.Kernel) (passed, total int) {
	return run(out, Cases(k))
}

func run(out Printer, cases []Case) (passed, total int) {
	for _, c := range cases {
		out.RawPrintString(c.Desc)
		out.RawPrintString("... ")
		if err := c.Run(); err != nil {
			out.RawPrintString("fail! (" + err.Error() + ")")
		} else {
			out.RawPrintString("ok")
			passed++
		}
		out.RawPrintString("\n")
	}

	total = len(cases)
	if passed == total {
		out.RawPrintString("All tests pass!")
	} else {
		out.RawPrintDecimal(uint64(passed))
		out.RawPrintString("/")
		out.RawPrintDecimal(uint64(total))
		out.RawPrintString(" tests passed.")
	}
	out.RawPrintString("\n")
	return passed, total
}

// Cases returns the boot checks. The driver checks share k's semaphores but
// use their own table.
func Cases(k *kernel.Kernel) []Case {
	d := driverCases{k: k}
	return []Case{
		{"schedule with no threads", scheduleEmpty},
		{"schedule with one thread", scheduleOne},
		{"schedule with all threads blocked", scheduleAllBlocked},
		{"schedule with all threads same priority", scheduleAllSamePriority},
		{"schedule with a high priority ready thread", scheduleHighReady},
		{"schedule with high/blocked low/ready threads", scheduleHighBlockedLowReady},
		{"schedule with a thread waking up", scheduleThreadWakesUp},
		{"schedule with a thread close to waking", scheduleThreadAlmostWakesUp},
		{"schedule with a high priority thread waking up while a low priority thread is ready", scheduleHighWakesUpLowReady},
		{"create thread with empty name", createEmptyName},
		{"create a thread with a name that's too long", createNameTooLong},
		{"create a thread with a nil entry point", createNilEntry},
		{"create a thread when there's no free slots", createNoFreeSlots},
		{"create a thread and validate correct TCB entry", createNormal},
		{"do operations on nil driver handle", d.nilOps},
		{"do operations on closed handle", d.closedOps},
		{"do operations on a powered down driver", d.poweredDownOps},
		{"do read and write with nil buffers", d.nilBuffers},
		{"open an already opened handle", d.doubleOpen},
		{"ioctl with unknown code", d.ioctlBadCode},
		{"ioctl with required buffers that are too small", d.ioctlBadSizes},
		{"ioctl with required buffers that are nil", d.ioctlNilBuffers},
		{"power up twice", d.doublePowerUp},
		{"power down twice", d.doublePowerDown},
		{"try power operations when not supported", d.powerUnsupported},
		{"write, read, and verify", d.readWriteVerify},
		{"close a handle and verify", d.closeVerify},
		{"verify power state transitions", d.powerStateVerify},
		{"ioctl with no buffers used", d.ioctl(testdrv.IoctlNone, 0, 0)},
		{"ioctl with an in buffer", d.ioctl(testdrv.IoctlIn, testdrv.BufSize, 0)},
		{"ioctl with an out buffer", d.ioctl(testdrv.IoctlOut, 0, testdrv.BufSize)},
		{"ioctl with an in and an out buffer", d.ioctl(testdrv.IoctlInOut, testdrv.BufSize, testdrv.BufSize)},
	}
}

func expect(what string, got, want error) error {
	if !errors.Is(got, want) {
		return fmt.Errorf("%s: got %v, want %v", what, got, want)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

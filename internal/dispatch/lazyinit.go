package dispatch

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"
)

// Subsystem identifies an independently initialized runtime. CPU and CUDA
// cover the device families; Complex covers complex-number kernel support and
// is triggered only when a lookup requests a complex scalar type.
type Subsystem int

// Lazily initialized subsystems.
const (
	SubsystemCPU Subsystem = iota
	SubsystemCUDA
	SubsystemComplex

	numSubsystems = int(SubsystemComplex) + 1
)

// String returns the subsystem name.
func (s Subsystem) String() string {
	switch s {
	case SubsystemCPU:
		return "cpu"
	case SubsystemCUDA:
		return "cuda"
	case SubsystemComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// InitHooks supplies the per-subsystem initialization routines run by the
// lazy init gates. A regular build installs real kernel tables; the stub
// implementation below errors for everything, which is what links in when no
// kernel library is present.
type InitHooks interface {
	InitCPU() error
	InitCUDA() error
	InitComplex() error
}

// UnavailableHooks is the "no kernels" InitHooks: every subsystem reports
// ErrBackendUnavailable.
type UnavailableHooks struct{}

// InitCPU implements InitHooks.
func (UnavailableHooks) InitCPU() error {
	return errors.Wrap(ErrBackendUnavailable, "cannot use CPU without a kernel library")
}

// InitCUDA implements InitHooks.
func (UnavailableHooks) InitCUDA() error {
	return errors.Wrap(ErrBackendUnavailable, "cannot use CUDA without a CUDA kernel library")
}

// InitComplex implements InitHooks.
func (UnavailableHooks) InitComplex() error {
	return errors.Wrap(ErrBackendUnavailable, "cannot use complex without a complex kernel library")
}

// lazyInit runs each subsystem's initialization at most once per process,
// safely under concurrent first-touch. singleflight collapses racing callers
// onto one execution and propagates the winner's error to all of them;
// success latches via the done flags, failure does not, so a failed init is
// re-attempted on the next call rather than cached for the process lifetime.
type lazyInit struct {
	hooks  atomic.Pointer[InitHooks]
	flight singleflight.Group
	done   [numSubsystems]atomic.Bool
}

func newLazyInit(hooks InitHooks) *lazyInit {
	l := &lazyInit{}
	l.hooks.Store(&hooks)
	return l
}

// setHooks replaces the init routines. Intended for startup wiring only;
// gates that already latched keep their state.
func (l *lazyInit) setHooks(hooks InitHooks) {
	l.hooks.Store(&hooks)
}

// ensure runs the subsystem's init routine if it has not succeeded yet.
// Blocks the calling goroutine only while the single winning initialization
// is in flight.
func (l *lazyInit) ensure(s Subsystem) error {
	if l.done[s].Load() {
		return nil
	}
	_, err, _ := l.flight.Do(s.String(), func() (any, error) {
		if l.done[s].Load() {
			return nil, nil
		}
		klog.V(1).Infof("initializing %s subsystem", s)
		if err := l.run(s); err != nil {
			klog.V(1).Infof("%s subsystem initialization failed: %v", s, err)
			return nil, err
		}
		l.done[s].Store(true)
		return nil, nil
	})
	return err
}

func (l *lazyInit) run(s Subsystem) error {
	hooks := *l.hooks.Load()
	switch s {
	case SubsystemCPU:
		return hooks.InitCPU()
	case SubsystemCUDA:
		return hooks.InitCUDA()
	case SubsystemComplex:
		return hooks.InitComplex()
	default:
		return errors.Errorf("unknown subsystem %d", s)
	}
}

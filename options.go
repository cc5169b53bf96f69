// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package pintos

// kernelOptions holds configuration resolved from KernelOption values.
type kernelOptions struct {
	timeSlice       int
	defaultPriority int
	mlfqs           bool
	metricsEnabled  bool
	logger          Logger
	pageAllocator   PageAllocator
	tickSource      TickSource
}

// KernelOption configures a Kernel at construction time.
type KernelOption interface {
	applyKernel(*kernelOptions) error
}

type kernelOptionImpl struct {
	applyKernelFunc func(*kernelOptions) error
}

func (k *kernelOptionImpl) applyKernel(opts *kernelOptions) error {
	return k.applyKernelFunc(opts)
}

// WithTimeSlice sets the number of ticks a thread may run before the
// scheduler requests a yield on return from the timer interrupt. Default 4,
// matching TIME_SLICE in the source.
func WithTimeSlice(ticks int) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		if ticks < 1 {
			return &ContractError{Op: "WithTimeSlice", Message: "ticks must be >= 1"}
		}
		opts.timeSlice = ticks
		return nil
	}}
}

// WithDefaultPriority sets the priority Start assigns to the boot thread.
// Default 31. Create always takes an explicit priority and does not use it.
func WithDefaultPriority(p int) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.defaultPriority = clampPriority(p)
		return nil
	}}
}

// WithMLFQS toggles the multi-level feedback queue scheduler flag, mirroring
// the CLI's "-o mlfqs". The scheduler itself remains strict-priority. Only
// LoadAvg reads the flag, and it reports 0 either way; GetNice and
// RecentCpu ignore it.
func WithMLFQS(enabled bool) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.mlfqs = enabled
		return nil
	}}
}

// WithMetrics enables context-switch, preemption, idle-tick, donation and
// syscall-latency metrics collection. Disabled by default (zero overhead).
func WithMetrics(enabled bool) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithLogger installs a structured Logger. Defaults to the package-level
// logger set via SetLogger (itself defaulting to a logiface/stumpy backend).
func WithLogger(l Logger) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithPageAllocator installs the external page-frame collaborator (spec §6).
// Defaults to an unbounded in-process pool.
func WithPageAllocator(a PageAllocator) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.pageAllocator = a
		return nil
	}}
}

// WithTickSource installs the external interrupt-controller/timer-device
// collaborator (spec §6). If unset, the Kernel must be driven by explicit
// calls to Kernel.Tick.
func WithTickSource(s TickSource) KernelOption {
	return &kernelOptionImpl{func(opts *kernelOptions) error {
		opts.tickSource = s
		return nil
	}}
}

// resolveKernelOptions applies KernelOption values atop sane defaults.
func resolveKernelOptions(opts []KernelOption) (*kernelOptions, error) {
	cfg := &kernelOptions{
		timeSlice:       4,
		defaultPriority: DefaultPriority,
		pageAllocator:   pooledPageAllocator{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyKernel(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

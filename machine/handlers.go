package machine

// PrintHandler is a host-supplied callback invoked synchronously when
// a running program executes Print. Handlers never block the stepping
// thread in this runtime's own code — if a host hands over a blocking
// handler, that is the host's concurrency to own, per spec.md section 5.
type PrintHandler func(text string)

// handlers is the small, mutable collection of effect callbacks a
// Machine invokes as it steps. It mirrors the teacher VM's device
// registration idiom (vm/devices.go's per-kind registration) but kept
// synchronous: no goroutines, no channel-backed bus, because the core
// here is specified as single-threaded cooperative.
type handlers struct {
	print []PrintHandler
}

// OnPrint registers a handler to run, in registration order, every
// time the machine executes Print.
func (m *Machine) OnPrint(h PrintHandler) {
	m.handlers.print = append(m.handlers.print, h)
}

// firePrint invokes every registered print handler and always appends
// a PrintEvent, even when no handler is registered — per spec.md,
// Print with no handler is a no-op, not an error.
func (m *Machine) firePrint(text string) {
	for _, h := range m.handlers.print {
		h(text)
	}
	m.events = append(m.events, PrintEvent{Text: text})
}

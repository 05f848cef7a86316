/*
Package clock provides an injectable time source for code that schedules
deferred work.

Production code uses Real, which delegates to the time package. Tests use
Fake, whose time only moves when Advance is called, so debounce and delay
logic can be exercised deterministically:

	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := c.AfterFunc(200*time.Millisecond, flush)
	c.Advance(200 * time.Millisecond) // flush runs here, synchronously
*/
package clock

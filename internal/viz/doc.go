// Package viz renders a running particle simulation in the terminal.
//
// [Model] is a Bubble Tea program whose frame tick is the render refresh
// signal: each frame it samples the [sim.Simulation] at the current scaled
// time, extends the look-ahead [sim.Buffer] by one step and redraws the
// stage on a braille [Canvas].
//
// # Key Bindings
//
//	Space - Start/Stop (stopping resets the clock)
//	> <   - Double/halve playback speed
//	+ - 0 - Zoom in/out/reset, eased by a spring
//	F     - Toggle force lines between particle pairs
//	?     - Show help overlay
package viz

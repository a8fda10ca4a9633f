// Package analysis provides trajectory analysis over sampled steps.
//
//   - [PowerSpectrum], [DominantPeriod]: periodicity of one coordinate series
//   - [Trail], [PortraitToASCII]: 2D portraits such as x against vx
//   - [Crossings]: upward threshold crossings, a Poincaré-style section
//   - [Separation], [DivergenceRate]: growth of the distance between two
//     runs started from perturbed conditions
//
// # Orbit period
//
// The period of a bound orbit shows up as the dominant spectral peak of either
// position coordinate:
//
//	xs := analysis.Series(result.Steps, satellite, analysis.PosX)
//	period, ok := analysis.DominantPeriod(xs, cfg.Sample())
package analysis

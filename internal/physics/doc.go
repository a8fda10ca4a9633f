// Package physics holds the particle model and the environment that computes
// forces between particles.
//
//   - [Particle]: a point mass backed by a [shape.Shape], with a pending-force
//     queue drained once per step
//   - [Environment]: the particle set, unit scale, friction and the pairwise
//     gravitational force computation
//
// # Force protocol
//
// Forces are computed in two phases. [Environment.RecalculateParticleForces]
// is pure: it returns the contributions a particle makes to its neighbours
// without touching any particle. The caller delivers every contribution with
// [Particle.AddForce] and only then drains each particle with
// [Particle.ResolveForces], so the result does not depend on iteration order.
//
//	nearby, contribs := env.RecalculateParticleForces(p, positions)
//	for _, c := range contribs {
//	    target, _ := env.GetParticle(c.To)
//	    target.AddForce(c.Force)
//	}
package physics

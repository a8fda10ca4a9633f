// Package shape is the retained-mode drawing layer the physics engine sits on.
//
// Only the narrow surface the engine consumes lives here:
//
//   - [Shape]: identity, position and a bounds predicate
//   - [Outline]: the collidable-outline capability used for collision geometry
//   - [Stage]: shape creation and the proximity query [Stage.GetShapesNear]
//
// Shape kinds opt into collision geometry by implementing [Outline]. Adding a
// new collidable kind means adding a new type, not editing a branch chain.
package shape

// Package nodes implements one behaviour per node kind.
//
// Behaviours come in two traits:
//   - Triggerable: an explicit run turns resolved inputs and local
//     configuration into a generation request (LanguageModel, ImageGenerator,
//     VideoDirector). ImageGenerator additionally fans out, spawning and
//     wiring ImageOutput nodes.
//   - Reactive: derived fields are recomputed by the graph store after every
//     mutation (Display).
//
// Prompt and ImageOutput nodes are static and have neither trait.
package nodes

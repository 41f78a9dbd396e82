// Package dispatch implements open multi-methods: free-standing
// polymorphic functions selected at call time by the dynamic classes of
// one or more virtual arguments.
//
// This package contains:
//   - An explicit class-descriptor registry and lattice builder
//   - Compressed per-class method tables (slot allocation + grouping)
//   - Partial-order most-specific specialization selection
//   - Flat dispatch tensors for methods with two or more virtual parameters
//   - Perfect-hash and stolen-field method-table resolution
//
// Hosts declare one ClassDesc per participating class, register method
// and specialization descriptors, call Update once, and thereafter
// dispatch through the per-method Lookup entry points. Dispatch after a
// successful Update is lock-free and touches only read-only tables.
package dispatch

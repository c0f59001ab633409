// Package sim provides the discrete-time multi-agent simulation engine for
// hydronet-sim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - bus.go: the topic pub/sub bus that is the only coupling between agents
//   - graph.go: the component graph and its topological flow ordering
//   - harness.go: the tick loop, the two run modes, and the history contract
//
// # Architecture
//
// The sim package defines the engine and its interfaces; physical component
// implementations live in sub-packages:
//   - sim/physical/: reservoir, gate, and river channel reference models
//
// Sub-packages register their component constructors via init() functions
// (RegisterComponentType), so YAML scenarios can name component types without
// the engine importing the implementations.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Component: state access, inflow injection, physical update
//   - Agent: the once-per-tick hook the harness drives, in kind order
//   - Controller: feedback law behind a control agent (PID is the reference)
//   - InflowProfile: deterministic boundary inflow attached per component
//
// Every run is single-threaded and reproducible: given the same scenario and
// seeds, two runs produce identical histories.
package sim

// Package agent wires the trigger, assembly, generation and finalization
// steps into the two conversational entry points.
//
// Flow per triggered message:
//
//	Evaluate -> Build (reads memory) -> Generate -> Finalize (writes memory)
//
// Invariant:
//   - For one conversation key, exchanges are committed to memory in the
//     order their messages arrived, even when generations finish out of order.
//     Failed turns commit nothing and do not hold up later turns.
package agent

// Package threadslinger2 is the root of an in-process, inter-thread
// messaging library: fixed-width buffer pools (package pool),
// reference-counted typed messages and shared handles (package message),
// and blocking FIFO queues with priority queue sets for fanning multiple
// producers into one consumer (package queue).
//
// See SPEC_FULL.md and DESIGN.md in the repository root for the full
// component breakdown and the rationale behind each package.
package threadslinger2

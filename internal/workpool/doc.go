// Package workpool provides a generic bounded worker pool.
//
// The pool decouples slow consumers from time-sensitive producers: a producer
// submits a task without ever blocking, and a fixed set of workers (growing
// under pressure up to a cap, never shrinking) executes tasks in the
// background. When the bounded queue is full, Submit reports rejection and
// the producer chooses how to degrade.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use from multiple goroutines.
package workpool

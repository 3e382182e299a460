// Package barsched simulates single-server scheduling policies.
//
// A bar has one bartender and many patrons. Patrons order drinks that
// take a fixed time to prepare; the bartender serves them one at a time
// under a scheduling policy chosen for the whole run. The package records
// when each order arrived, was first served and was completed, and turns
// that into per-order, per-patron and run-level statistics so that the
// policies can be compared on the same workload.
//
// Architecture overview
//
// The simulation is composed of four loosely coupled layers:
//
//  1. Ordering (schedQueue)
//     Decides which pending order leaves next: a FIFO ring buffer, or a
//     stable heap keyed on preparation time. The blocking orderQueue
//     wraps an ordering with the lock and the interruptible wait the
//     server needs.
//
//  2. Policy
//     FCFS, SJF and RR. A Policy builds its ordering and decides how
//     long each dispatch runs. The server never branches on the policy.
//
//  3. Execution (Server)
//     A single goroutine takes orders, "prepares" them by sleeping for
//     the granted slice, completes or requeues them and pauses for the
//     switch delay after each.
//
//  4. Statistics (Collector, Report)
//     Arrival, first-service and completion times per order, aggregated
//     per patron, plus idle time, utilization and throughput.
//
// Start and stop
//
// The server and all patrons meet on a StartBarrier so their timed work
// begins together; the server takes its timing baseline only after the
// barrier opens. RequestStop is cooperative: it interrupts a wait for the
// next order but never an order being prepared.
//
// Round robin
//
// An order whose remaining time exceeds the quantum runs for one quantum
// and is submitted again at the tail of the queue. Its first-service time
// is set on the first slice only; its completion on the last.
//
// Error handling
//
// Statistics invariant violations are internal errors. They are logged
// and passed to Options.OnInternalError; builds with -tags debug panic.
// Report writes are retried with backoff.
package barsched

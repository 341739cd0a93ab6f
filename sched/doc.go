// Package sched models the interests a guest waits on in one multiplexed
// poll round and the results that come back from it.
//
// A round builds a batch of Subscription values, hands it to a poller which
// completes the readiness interests it observed, and then converts the batch
// with Results. Readiness subscriptions hold only a handle and re-resolve the
// file when probed, so a Read and a Write on the same handle can share a
// batch. Their completion slot is written once and read once; breaking either
// rule panics.
package sched

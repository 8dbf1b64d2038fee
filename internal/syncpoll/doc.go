// Package syncpoll implements the client-side polling loop that keeps a
// list view synchronized with the server using cheap digest checks.
//
// Each cycle asks the server for the current list digest and only fetches
// the full payload when the digest moved. Pause conditions from several
// sources combine with OR semantics, a manual pause is sticky until
// manually resumed, and failures retry a bounded number of times before
// the loop re-arms for the next interval. Teardown abandons any in-flight
// cycle without firing callbacks.
package syncpoll

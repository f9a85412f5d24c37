// Package exitcodes defines the standard exit codes used by geo-acceptor.
package exitcodes

// Exit code constants used by geo-acceptor:
//
// * Success (0): the pipeline ran to completion. Individual test
//   categories may still have reported failures; those are data in the
//   run report, not a process failure.
// * UsageErr (1): invalid command line usage.
// * RuntimeErr (2): missing required configuration, violated task
//   preconditions, or unreachable dependencies.
const (
	Success    = 0
	UsageErr   = 1
	RuntimeErr = 2
)

// Package exitcodes defines the exit codes used by op-harness.
package exitcodes

// Exit code constants follow the standard test runner:
//
// * Success (0): no selected test failed, including runs where nothing matched
// * TestFailure (101): one or more tests failed
// * ConfigErr (101): the command line or profile was rejected before any test ran
const (
	Success     = 0
	TestFailure = 101
	ConfigErr   = 101
)

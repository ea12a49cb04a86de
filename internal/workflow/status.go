package workflow

// Status is the terminal status of a completed workflow run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusFailedTests      Status = "failed_tests"
	StatusFailedSmoke      Status = "failed_smoke"
	StatusFailedGovernance Status = "failed_governance"
	StatusError            Status = "error"
)

// Check is one optional step's contribution to status resolution: whether
// the step ran, and whether it passed. Passed is meaningless when Ran is
// false.
type Check struct {
	Ran    bool
	Passed bool
}

// Resolve merges the optional step checks into one terminal status. The
// order is a severity ranking: a test failure outranks a smoke failure,
// which outranks a governance failure. Governance only counts when a
// change request was requested, since policy runs solely as a
// change-request precondition. A step that did not run never contributes
// a failure; a run with zero checks resolves to success.
func Resolve(tests, smoke Check, changeRequested bool, governance Check) Status {
	if tests.Ran && !tests.Passed {
		return StatusFailedTests
	}
	if smoke.Ran && !smoke.Passed {
		return StatusFailedSmoke
	}
	if changeRequested && governance.Ran && !governance.Passed {
		return StatusFailedGovernance
	}
	return StatusSuccess
}

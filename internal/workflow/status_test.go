package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Precedence(t *testing.T) {
	tests := []struct {
		name            string
		tests           Check
		smoke           Check
		changeRequested bool
		governance      Check
		want            Status
	}{
		{
			name: "nothing ran",
			want: StatusSuccess,
		},
		{
			name:  "all passed",
			tests: Check{Ran: true, Passed: true},
			smoke: Check{Ran: true, Passed: true},
			want:  StatusSuccess,
		},
		{
			name:            "tests failed outrank everything",
			tests:           Check{Ran: true, Passed: false},
			smoke:           Check{Ran: true, Passed: false},
			changeRequested: true,
			governance:      Check{Ran: true, Passed: false},
			want:            StatusFailedTests,
		},
		{
			name:            "smoke failure when tests clean",
			tests:           Check{Ran: true, Passed: true},
			smoke:           Check{Ran: true, Passed: false},
			changeRequested: true,
			governance:      Check{Ran: true, Passed: false},
			want:            StatusFailedSmoke,
		},
		{
			name:            "governance failure when tests and smoke clean",
			tests:           Check{Ran: true, Passed: true},
			smoke:           Check{Ran: true, Passed: true},
			changeRequested: true,
			governance:      Check{Ran: true, Passed: false},
			want:            StatusFailedGovernance,
		},
		{
			name:            "governance failure ignored without change request",
			governance:      Check{Ran: true, Passed: false},
			changeRequested: false,
			want:            StatusSuccess,
		},
		{
			name:  "not-run steps never fail",
			tests: Check{Ran: false, Passed: false},
			smoke: Check{Ran: false, Passed: false},
			want:  StatusSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.tests, tt.smoke, tt.changeRequested, tt.governance)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolve_Exhaustive walks every combination of inputs and checks the
// documented severity ranking holds for each.
func TestResolve_Exhaustive(t *testing.T) {
	bools := []bool{false, true}
	checks := func() []Check {
		var out []Check
		for _, ran := range bools {
			for _, passed := range bools {
				out = append(out, Check{Ran: ran, Passed: passed})
			}
		}
		return out
	}()

	for _, tests := range checks {
		for _, smoke := range checks {
			for _, governance := range checks {
				for _, requested := range bools {
					got := Resolve(tests, smoke, requested, governance)

					switch {
					case tests.Ran && !tests.Passed:
						assert.Equal(t, StatusFailedTests, got)
					case smoke.Ran && !smoke.Passed:
						assert.Equal(t, StatusFailedSmoke, got)
					case requested && governance.Ran && !governance.Passed:
						assert.Equal(t, StatusFailedGovernance, got)
					default:
						assert.Equal(t, StatusSuccess, got)
					}
				}
			}
		}
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("feature")
	assert.NoError(t, err)
	assert.Equal(t, KindFeature, kind)

	kind, err = ParseKind("bugfix")
	assert.NoError(t, err)
	assert.Equal(t, KindBugfix, kind)

	_, err = ParseKind("deploy")
	assert.Error(t, err)
}

func TestRequestNormalize(t *testing.T) {
	req := Request{Kind: KindFeature, ProjectID: "shop"}
	req.Normalize()

	assert.Equal(t, "main", req.Base)
	assert.Equal(t, int64(60), int64(req.SmokeTimeout.Seconds()))
	assert.NotEmpty(t, req.BranchName)
	assert.NotEmpty(t, req.CommitMessage)
	assert.Equal(t, req.CommitMessage, req.Title)

	custom := Request{Base: "develop", BranchName: "feat/x", Title: "my title"}
	custom.Normalize()
	assert.Equal(t, "develop", custom.Base)
	assert.Equal(t, "feat/x", custom.BranchName)
	assert.Equal(t, "my title", custom.Title)
}

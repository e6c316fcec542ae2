package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestInput(t *testing.T, month Month, employees ...EmployeeSpec) *Input {
	t.Helper()

	input, err := NewInput(month, employees)
	require.NoError(t, err)
	return input
}

func newTestSolution(t *testing.T, input *Input, assignment ...int) *Solution {
	t.Helper()

	require.Len(t, assignment, input.LengthOfMonth())
	return NewSolution(NewCostModel(input, DefaultParameters()), assignment, DefaultParameters().RetriesPerSolution)
}

func testParameters() Parameters {
	params := DefaultParameters()
	params.Workers = 4
	params.NeighborhoodSampleSize = 20
	params.MaxIterationsWithoutImprovement = 200
	params.RetriesPerSolution = 5
	params.Seed = 42
	return params
}

const (
	defaultWait = 5 * time.Second
	defaultTick = 10 * time.Millisecond
)

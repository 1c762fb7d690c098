package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/core"
)

type stubRunner struct {
	block   chan struct{}
	summary *core.RunSummary
	err     error

	gotConfig *config.Config
}

func (s *stubRunner) Run(_ context.Context, cfg *config.Config) (*core.RunSummary, error) {
	s.gotConfig = cfg
	if s.block != nil {
		<-s.block
	}
	return s.summary, s.err
}

func validRequest() Request {
	return Request{
		Inputs: []string{"in.jsonl"},
		Output: "out",
		RPM:    10,
		Model:  &config.ModelConfig{ID: "anthropic.claude-3", Region: "us-east-1"},
	}
}

func waitForStatus(t *testing.T, m *Manager, id string, want Status) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		got, ok := m.Get(id)
		if !ok {
			return false
		}
		job = got
		return got.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	runner := &stubRunner{
		summary: &core.RunSummary{
			ExecutionID: "1700000000",
			Files: []core.FileResult{
				{Input: "in.jsonl", Records: 3, Failures: 1},
			},
		},
	}
	m := NewManager(runner, zap.NewNop())

	job, err := m.Submit(validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	done := waitForStatus(t, m, job.ID, StatusSucceeded)
	require.NotNil(t, done.Summary)
	require.Equal(t, 3, done.Summary.TotalRecords())
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)
	require.Empty(t, done.Error)

	require.Equal(t, []string{"in.jsonl"}, runner.gotConfig.Inputs)
	require.Equal(t, 10, runner.gotConfig.RPM)
}

func TestSubmitRecordsRunnerFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("read input: no such file")}
	m := NewManager(runner, zap.NewNop())

	job, err := m.Submit(validRequest())
	require.NoError(t, err)

	done := waitForStatus(t, m, job.ID, StatusFailed)
	require.Contains(t, done.Error, "no such file")
	require.Nil(t, done.Summary)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	m := NewManager(&stubRunner{}, zap.NewNop())

	_, err := m.Submit(Request{Output: "out"})
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Empty(t, m.List())
}

func TestRequestDefaults(t *testing.T) {
	req := Request{
		Inputs:   []string{"a.jsonl"},
		Output:   "out",
		Workflow: &config.WorkflowConfig{URL: "https://wf.example", APIKey: "k"},
	}
	cfg := req.ToConfig()
	require.Equal(t, 60, cfg.RPM)
	require.Equal(t, config.DefaultMaxWorkers, cfg.MaxWorkers)
	require.NoError(t, cfg.Validate())
}

func TestCheckHealth(t *testing.T) {
	m := NewManager(&stubRunner{}, zap.NewNop())
	require.NoError(t, m.CheckHealth(context.Background()))

	broken := NewManager(nil, zap.NewNop())
	require.Error(t, broken.CheckHealth(context.Background()))
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{}), summary: &core.RunSummary{}}
	m := NewManager(runner, zap.NewNop())

	first, err := m.Submit(validRequest())
	require.NoError(t, err)
	second, err := m.Submit(validRequest())
	require.NoError(t, err)

	jobs := m.List()
	require.Len(t, jobs, 2)
	require.Equal(t, first.ID, jobs[0].ID)
	require.Equal(t, second.ID, jobs[1].ID)

	close(runner.block)
	waitForStatus(t, m, second.ID, StatusSucceeded)
}

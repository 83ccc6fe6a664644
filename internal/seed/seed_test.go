package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/practice-scheduler/internal/domain"
	"github.com/phrazzld/practice-scheduler/internal/mocks"
	"github.com/phrazzld/practice-scheduler/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFile = `
rules:
  - name: Monthly GST Returns
    frequency: monthly
    day_of_month: 20
    start_date: 2024-01-01
    client_id: 6f1e7a52-54a3-4d5c-9f3b-0d8a8e1c2b11
  - name: Quarterly TDS Return
    frequency: quarterly
    start_date: "2024-04-01"
    end_date: 2026-03-31
  - name: Weekly payroll check
    frequency: weekly
    day_of_week: 5
    start_date: 2024-01-05
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	t.Parallel()
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)
	require.Len(t, f.Rules, 3)

	gst := f.Rules[0]
	assert.Equal(t, "Monthly GST Returns", gst.Name)
	assert.Equal(t, "2024-01-01", gst.StartDate)
	require.NotNil(t, gst.DayOfMonth)
	assert.Equal(t, 20, *gst.DayOfMonth)

	params, err := gst.Params()
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyMonthly, params.Frequency)
	assert.True(t, params.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, params.ClientID)
	assert.Equal(t, "6f1e7a52-54a3-4d5c-9f3b-0d8a8e1c2b11", params.ClientID.String())

	tds, err := f.Rules[1].Params()
	require.NoError(t, err)
	require.NotNil(t, tds.EndDate)
	assert.True(t, tds.EndDate.Equal(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, tds.DayOfMonth)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		data    string
		wantErr error
		wantMsg string
	}{
		{name: "empty", data: "  \n", wantErr: ErrEmptyFile},
		{name: "no rules", data: "rules: []", wantMsg: "invalid file"},
		{name: "unknown key", data: "rules:\n  - name: x\n    frequency: daily\n    start_date: 2024-01-01\n    colour: red\n", wantMsg: "decode"},
		{name: "bad frequency", data: "rules:\n  - name: x\n    frequency: hourly\n    start_date: 2024-01-01\n", wantMsg: "invalid file"},
		{name: "bad uuid", data: "rules:\n  - name: x\n    frequency: daily\n    start_date: 2024-01-01\n    client_id: acme\n", wantMsg: "invalid file"},
		{
			name:    "monthly without day",
			data:    "rules:\n  - name: Audit\n    frequency: monthly\n    start_date: 2024-01-01\n",
			wantErr: domain.ErrRuleDayOfMonthNeeded,
			wantMsg: `rules[0] "Audit"`,
		},
		{
			name:    "end before start",
			data:    "rules:\n  - name: Audit\n    frequency: daily\n    start_date: 2024-02-01\n    end_date: 2024-01-01\n",
			wantErr: domain.ErrRuleEndBeforeStart,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.data))
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestValidateReportsEveryBadRule(t *testing.T) {
	t.Parallel()
	f := &File{Rules: []RuleSpec{
		{Name: "ok", Frequency: "daily", StartDate: "2024-01-01"},
		{Name: "one", Frequency: "monthly", StartDate: "2024-01-01"},
		{Name: "two", Frequency: "yearly", StartDate: "2024-05-01", EndDate: "2024-04-01"},
	}}

	err := f.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRuleDayOfMonthNeeded)
	assert.ErrorIs(t, err, domain.ErrRuleEndBeforeStart)
	assert.Contains(t, err.Error(), "rules[1]")
	assert.Contains(t, err.Error(), "rules[2]")
	assert.NotContains(t, err.Error(), "rules[0]")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Rules, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadReader(t *testing.T) {
	t.Parallel()
	f, err := LoadReader(strings.NewReader(sampleFile))
	require.NoError(t, err)
	assert.Len(t, f.Rules, 3)
}

func newRuleService(t *testing.T, mem *mocks.MemoryStore) service.RuleService {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) }
	svc, err := service.NewRuleService(mem.Stores(), mem, clock, discardLogger())
	require.NoError(t, err)
	return svc
}

func TestApply(t *testing.T) {
	t.Parallel()
	mem := mocks.NewMemoryStore()
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	created, err := Apply(context.Background(), newRuleService(t, mem), f, discardLogger())
	require.NoError(t, err)
	require.Len(t, created, 3)

	for _, rule := range created {
		stored := mem.Rule(rule.ID)
		require.NotNil(t, stored)
		assert.True(t, stored.Active)
		assert.Nil(t, stored.LastGenerated)
	}
	assert.Equal(t, "Monthly GST Returns", created[0].Name)
}

type failingRuleService struct {
	service.RuleService
	calls  int
	failAt int
}

func (f *failingRuleService) CreateRule(_ context.Context, p domain.RuleParams) (*domain.RecurrenceRule, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("database unavailable")
	}
	return domain.NewRecurrenceRule(p, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	f, err := Parse([]byte(sampleFile))
	require.NoError(t, err)

	svc := &failingRuleService{failAt: 2}
	created, err := Apply(context.Background(), svc, f, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rules[1] "Quarterly TDS Return"`)
	assert.Len(t, created, 1)
	assert.Equal(t, 2, svc.calls)
}

func TestApplyRejectsMalformedID(t *testing.T) {
	t.Parallel()
	f := &File{Rules: []RuleSpec{{
		Name: "x", Frequency: "daily", StartDate: "2024-01-01", AssignedTo: uuid.Nil.String() + "z",
	}}}

	created, err := Apply(context.Background(), newRuleService(t, mocks.NewMemoryStore()), f, discardLogger())
	assert.ErrorIs(t, err, domain.ErrInvalidID)
	assert.Empty(t, created)
}

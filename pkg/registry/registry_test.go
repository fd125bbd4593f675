package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	scs "beauty-workers/internal/workers/catalog/sync-catalog-service"
	bpp "beauty-workers/internal/workers/onboarding/build-preference-profile"
	gr "beauty-workers/internal/workers/recommendation/generate-recommendations"
	ate "beauty-workers/internal/workers/trust/apply-trust-event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedRegistryListsEveryWorker(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{bpp.TaskType, gr.TaskType, ate.TaskType, scs.TaskType} {
		activity, ok := reg.Find(taskType)
		if assert.True(t, ok, "task type %s missing from registry", taskType) {
			assert.Equal(t, "completed", activity.ImplementationStatus)
			assert.NotEmpty(t, activity.ErrorCodes)
			assert.Equal(t, 10*time.Second, activity.TimeoutDuration())
		}
	}
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"activities": [`), 0o644))
	_, err = LoadRegistry(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Zero(t, Activity{Timeout: "soon"}.TimeoutDuration())

	valid := Activity{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", Timeout: "5s"}

	tests := []struct {
		name       string
		activities []Activity
		wantErr    string
	}{
		{name: "valid", activities: []Activity{valid}},
		{name: "empty", wantErr: "no activities"},
		{name: "missing task type", activities: []Activity{{ID: "a", DisplayName: "A", Category: "c"}}, wantErr: "TaskType"},
		{name: "duplicate id", activities: []Activity{valid, {ID: "a", DisplayName: "B", TaskType: "b", Category: "c"}}, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", activities: []Activity{valid, {ID: "b", DisplayName: "B", TaskType: "a", Category: "c"}}, wantErr: "duplicate task type"},
		{name: "bad timeout", activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", Timeout: "soon"}}, wantErr: "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ActivityRegistry{Activities: tt.activities}).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

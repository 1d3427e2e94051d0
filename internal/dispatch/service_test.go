package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saimali7/tour-crm/pkg/common"
)

func TestDispatchedDayRejectsMutations(t *testing.T) {
	err := ensureMutable(&DispatchStatus{Status: DispatchStateDispatched}, "2026-08-24")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.Code)
	assert.Equal(t, common.KindDispatchFrozen, appErr.Kind)
	assert.Contains(t, appErr.Message, "frozen")

	for _, state := range []DispatchState{DispatchStatePending, DispatchStateOptimized, DispatchStateReady} {
		assert.NoError(t, ensureMutable(&DispatchStatus{Status: state}, "2026-08-24"))
	}
}

func TestOnlyReadyDayCanBeDispatched(t *testing.T) {
	assert.NoError(t, ensureDispatchable(&DispatchStatus{Status: DispatchStateReady}, "2026-08-24"))

	for _, state := range []DispatchState{DispatchStatePending, DispatchStateOptimized, DispatchStateDispatched} {
		err := ensureDispatchable(&DispatchStatus{Status: state}, "2026-08-24")
		require.Error(t, err, "state %s", state)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, common.KindConflict, appErr.Kind)
		assert.Contains(t, appErr.Message, string(state))
	}
}

func TestNormalizeDateKeyUsesOperationalTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := &Service{loc: loc}

	// 03:30 UTC is still the previous evening in New York
	key, err := s.NormalizeDateKey("2026-08-25T03:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24", key)

	key, err = s.NormalizeDateKey("2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24", key)

	_, err = s.NormalizeDateKey("yesterday")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.KindValidation, appErr.Kind)
}

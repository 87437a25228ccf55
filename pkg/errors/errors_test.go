package errors

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	builds      []*BuildError
	contracts   []*ContractError
	consistency []*ConsistencyError
}

func (h *recordingHandler) HandleBuildError(err *BuildError)             { h.builds = append(h.builds, err) }
func (h *recordingHandler) HandleContractError(err *ContractError)       { h.contracts = append(h.contracts, err) }
func (h *recordingHandler) HandleConsistencyError(err *ConsistencyError) { h.consistency = append(h.consistency, err) }

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "build", KindBuild.String())
	assert.Equal(t, "contract", KindContract.String())
	assert.Equal(t, "consistency", KindConsistency.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestBuildErrorMessage(t *testing.T) {
	panicked := &BuildError{Widget: "app.Header", Phase: "build", Recovered: "boom"}
	assert.Contains(t, panicked.Error(), "panic in app.Header")
	assert.Contains(t, panicked.Error(), "boom")

	underlying := errors.New("bad state")
	wrapped := &BuildError{Widget: "app.Header", Phase: "build", Err: underlying}
	assert.Contains(t, wrapped.Error(), "bad state")
	assert.ErrorIs(t, wrapped, underlying)
}

func TestContractErrorMessageIncludesChain(t *testing.T) {
	err := &ContractError{
		Op:          "core.SetState",
		Description: "called after dispose",
		Chain:       "app.Header <- app.Page",
	}
	msg := err.Error()
	assert.Contains(t, msg, "core.SetState")
	assert.Contains(t, msg, "app.Header <- app.Page")
}

func TestConsistencyErrorMessageListsChains(t *testing.T) {
	err := &ConsistencyError{
		Op:          "core.FinalizeTree",
		Description: "duplicate global key",
		Chains:      []string{"a <- b", "c <- d"},
	}
	msg := err.Error()
	assert.Contains(t, msg, "a <- b")
	assert.Contains(t, msg, "c <- d")
}

func TestReportRoutesToHandler(t *testing.T) {
	handler := &recordingHandler{}
	previous := SetHandler(handler)
	defer SetHandler(previous)

	ReportBuildError(&BuildError{Widget: "w", Phase: "build"})
	ReportContractError(&ContractError{Op: "op"})
	ReportConsistencyError(&ConsistencyError{Op: "op"})

	require.Len(t, handler.builds, 1)
	require.Len(t, handler.contracts, 1)
	require.Len(t, handler.consistency, 1)
}

func TestReportStampsTimestamp(t *testing.T) {
	handler := &recordingHandler{}
	previous := SetHandler(handler)
	defer SetHandler(previous)

	ReportBuildError(&BuildError{Widget: "w"})
	require.Len(t, handler.builds, 1)
	assert.False(t, handler.builds[0].Timestamp.IsZero())

	stamped := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ReportBuildError(&BuildError{Widget: "w", Timestamp: stamped})
	assert.Equal(t, stamped, handler.builds[1].Timestamp)
}

func TestReportNilIsNoop(t *testing.T) {
	handler := &recordingHandler{}
	previous := SetHandler(handler)
	defer SetHandler(previous)

	ReportBuildError(nil)
	ReportContractError(nil)
	ReportConsistencyError(nil)
	assert.Empty(t, handler.builds)
	assert.Empty(t, handler.contracts)
	assert.Empty(t, handler.consistency)
}

func TestSetHandlerNilRestoresDefault(t *testing.T) {
	previous := SetHandler(&recordingHandler{})
	defer SetHandler(previous)

	SetHandler(nil)
	_, ok := getHandler().(*LogHandler)
	assert.True(t, ok)
}

func TestCaptureStackNamesCaller(t *testing.T) {
	stack := CaptureStack()
	require.NotEmpty(t, stack)
	assert.True(t, strings.Contains(stack, "testing.tRunner") || strings.Contains(stack, "errors"))
}

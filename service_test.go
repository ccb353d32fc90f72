package phd

import (
	"testing"
	"time"

	"github.com/giesekow/go-phd/apdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeIDsMonotonicAndUniqueAcrossWrap(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	s.nextInvokeID = 0xFFFE
	var ids []apdu.InvokeID
	for i := 0; i < 4; i++ {
		req := s.sendRequest(&apdu.RoivGet{}, time.Hour, nil)
		ids = append(ids, req.InvokeID)
	}
	assert.Equal(t, []apdu.InvokeID{0xFFFE, 0xFFFF, 0, 1}, ids)

	// Wrapping again must skip the ids that are still open.
	s.nextInvokeID = 0xFFFE
	req := s.sendRequest(&apdu.RoivGet{}, time.Hour, nil)
	assert.Equal(t, apdu.InvokeID(2), req.InvokeID)
	assert.Equal(t, 5, s.openCount())
}

func TestRetireRunsCallbackExactlyOnce(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	calls := 0
	req := s.sendRequest(&apdu.RoivGet{}, time.Hour, func(req *Request, result RequestResult) {
		calls++
		assert.Equal(t, OutcomeOK, result.Outcome)
	})
	s.retire(req.InvokeID, RequestResult{Outcome: OutcomeOK})
	s.retire(req.InvokeID, RequestResult{Outcome: OutcomeTimeout})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, s.openCount())
}

func TestTimeoutFiredAfterRetireIsIgnored(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	req := s.sendRequest(&apdu.RoivGet{}, time.Hour, nil)
	s.retire(req.InvokeID, RequestResult{Outcome: OutcomeOK})
	assert.False(t, s.timeoutFired(req.InvokeID))
}

func TestTimeoutFiredRetiresWithTimeout(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	var got *RequestResult
	req := s.sendRequest(&apdu.RoivGet{}, time.Hour, func(req *Request, result RequestResult) {
		got = &result
	})
	assert.True(t, s.timeoutFired(req.InvokeID))
	require.NotNil(t, got)
	assert.Equal(t, OutcomeTimeout, got.Outcome)
	assert.Equal(t, 0, s.openCount())
}

func TestDrainAllRetiresEverything(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	outcomes := map[apdu.InvokeID]RequestOutcome{}
	for i := 0; i < 3; i++ {
		s.sendRequest(&apdu.RoivGet{}, time.Hour, func(req *Request, result RequestResult) {
			outcomes[req.InvokeID] = result.Outcome
		})
	}
	s.drainAll(OutcomeAborted)
	assert.Equal(t, 0, s.openCount())
	assert.Len(t, outcomes, 3)
	for _, outcome := range outcomes {
		assert.Equal(t, OutcomeAborted, outcome)
	}
}

func TestRequestKeepsOriginatingInvokeShape(t *testing.T) {
	c, _ := testManagerConn()
	s := c.service

	req := s.sendRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:  9,
		ActionType: 3085,
	}}, time.Hour, nil)
	assert.Equal(t, apdu.ChoiceRoivConfirmedAction, req.Choice)
	assert.Equal(t, apdu.Handle(9), req.ObjHandle)
	assert.Equal(t, apdu.OIDType(3085), req.ActionType)
}

func TestResponseRetiresExactMatchingRequest(t *testing.T) {
	c, rc := testManagerConn()
	c.processEvent(evtIndTransportConnection, nil)
	c.state = StateOperating
	s := c.service

	var completed []apdu.InvokeID
	cb := func(req *Request, result RequestResult) {
		require.Equal(t, OutcomeOK, result.Outcome)
		require.NotNil(t, result.Response)
		completed = append(completed, req.InvokeID)
	}
	first := s.sendRequest(&apdu.RoivGet{}, time.Hour, cb)
	second := s.sendRequest(&apdu.RoivGet{}, time.Hour, cb)
	rc.reset()

	c.dispatchAPDU(&apdu.Prst{Data: apdu.DataApdu{
		InvokeID: second.InvokeID,
		Message:  &apdu.RorsGet{},
	}})
	assert.Equal(t, []apdu.InvokeID{second.InvokeID}, completed)
	assert.Equal(t, 1, s.openCount())
	assert.NotNil(t, s.checkKnown(first.InvokeID))
	assert.Nil(t, s.checkKnown(second.InvokeID))
}

func TestRoerRetiresWithErrorCode(t *testing.T) {
	c, _ := testManagerConn()
	c.processEvent(evtIndTransportConnection, nil)
	c.state = StateOperating
	s := c.service

	var got *RequestResult
	req := s.sendRequest(&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
		ObjHandle:  9,
		ActionType: 3084,
	}}, time.Hour, func(req *Request, result RequestResult) {
		got = &result
	})

	c.dispatchAPDU(&apdu.Prst{Data: apdu.DataApdu{
		InvokeID: req.InvokeID,
		Message:  &apdu.Roer{ErrorResult: apdu.ErrorResult{ErrorValue: apdu.ErrNoSuchAction}},
	}})
	require.NotNil(t, got)
	assert.Equal(t, OutcomeRoer, got.Outcome)
	assert.Equal(t, apdu.ErrNoSuchAction, got.Code)
	assert.Equal(t, 0, s.openCount())
}

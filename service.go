package phd

// The confirmed-service engine: allocates invoke ids for outbound remote
// operation invokes, tracks the outstanding requests with their timeouts,
// matches inbound responses back to their originating request and retires
// them.

import (
	"time"

	"github.com/giesekow/go-phd/apdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

// RequestOutcome describes how an outstanding confirmed request ended.
type RequestOutcome int

const (
	// OutcomeOK: a matching RORS arrived.
	OutcomeOK RequestOutcome = iota
	// OutcomeRoer: the peer answered with a remote operation error.
	OutcomeRoer
	// OutcomeRorj: the peer rejected the invoke.
	OutcomeRorj
	// OutcomeTimeout: the request timer expired.
	OutcomeTimeout
	// OutcomeAborted: the association went down with the request open.
	OutcomeAborted
)

func (o RequestOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRoer:
		return "roer"
	case OutcomeRorj:
		return "rorj"
	case OutcomeTimeout:
		return "timeout"
	}
	return "aborted"
}

// RequestResult is delivered to the request callback exactly once.
type RequestResult struct {
	Outcome RequestOutcome
	// Code is the ROER error_value or RORJ problem, zero otherwise.
	Code uint16
	// Response is the matching DATA-apdu for OutcomeOK, nil otherwise.
	Response *apdu.DataApdu
}

// RequestCallback observes request completion. Callbacks run on the
// connection goroutine and must not re-enter the tracker for the same
// invoke id.
type RequestCallback func(req *Request, result RequestResult)

// Request is one outstanding confirmed operation. The originating invoke's
// choice, action type and object handle are kept so a late ROER/RORJ can
// still be routed to the right object.
type Request struct {
	InvokeID   apdu.InvokeID
	Choice     uint16
	ActionType apdu.OIDType
	ObjHandle  apdu.Handle

	callback RequestCallback
	timer    *time.Timer
}

// service is the per-connection invoke tracker. All methods run on the
// connection pump goroutine.
type service struct {
	c            *Conn
	nextInvokeID apdu.InvokeID
	requests     map[apdu.InvokeID]*Request
}

func newService(c *Conn) *service {
	return &service{c: c, requests: make(map[apdu.InvokeID]*Request)}
}

// allocInvokeID returns a fresh invoke id. Ids are monotonically allocated;
// the 16-bit counter wraps, skipping ids that are still open so no two open
// requests ever share one.
func (s *service) allocInvokeID() apdu.InvokeID {
	for {
		id := s.nextInvokeID
		s.nextInvokeID++
		if _, open := s.requests[id]; !open {
			return id
		}
	}
}

// sendRequest assigns an invoke id to msg, transmits it inside a PRST,
// records the request and arms its timeout.
func (s *service) sendRequest(msg apdu.Message, timeout time.Duration, callback RequestCallback) *Request {
	req := &Request{
		InvokeID: s.allocInvokeID(),
		Choice:   msg.MessageChoice(),
		callback: callback,
	}
	switch m := msg.(type) {
	case *apdu.RoivGet:
		req.ObjHandle = m.ObjHandle
	case *apdu.RoivSet:
		req.ObjHandle = m.ObjHandle
	case *apdu.RoivConfirmedSet:
		req.ObjHandle = m.ObjHandle
	case *apdu.RoivAction:
		req.ObjHandle = m.ObjHandle
		req.ActionType = m.ActionType
	case *apdu.RoivConfirmedAction:
		req.ObjHandle = m.ObjHandle
		req.ActionType = m.ActionType
	case *apdu.RoivEventReport:
		req.ObjHandle = m.ObjHandle
	case *apdu.RoivConfirmedEventReport:
		req.ObjHandle = m.ObjHandle
	}
	s.requests[req.InvokeID] = req
	id := req.InvokeID
	ch := s.c.svcCh
	req.timer = time.AfterFunc(timeout, func() {
		select {
		case ch <- invokeTimeout{invokeID: id}:
		default:
		}
	})
	dicomlog.Vprintf(1, "phd.service(%s): invoke %d -> %s", s.c.label, req.InvokeID, msg.String())
	sendAPDU(s.c, &apdu.Prst{Data: apdu.DataApdu{InvokeID: req.InvokeID, Message: msg}})
	return req
}

// checkKnown returns the open request matching the invoke id without
// retiring it, for response classification.
func (s *service) checkKnown(invokeID apdu.InvokeID) *Request {
	return s.requests[invokeID]
}

// retire removes the request, cancels its timer and runs the callback. A
// second retire of the same id is a no-op.
func (s *service) retire(invokeID apdu.InvokeID, result RequestResult) {
	req := s.requests[invokeID]
	if req == nil {
		return
	}
	delete(s.requests, invokeID)
	if req.timer != nil {
		req.timer.Stop()
	}
	dicomlog.Vprintf(1, "phd.service(%s): invoke %d retired (%s)", s.c.label, invokeID, result.Outcome)
	if req.callback != nil {
		req.callback(req, result)
	}
}

// timeoutFired retires the request with a timeout outcome. It reports
// whether the request was still open; timers that fire after retirement are
// ignored.
func (s *service) timeoutFired(invokeID apdu.InvokeID) bool {
	if s.requests[invokeID] == nil {
		return false
	}
	s.retire(invokeID, RequestResult{Outcome: OutcomeTimeout})
	return true
}

// drainAll retires every open request, e.g. on transport disconnect or
// forced abort.
func (s *service) drainAll(outcome RequestOutcome) {
	for id := range s.requests {
		s.retire(id, RequestResult{Outcome: outcome})
	}
}

// openCount reports the number of outstanding requests.
func (s *service) openCount() int {
	return len(s.requests)
}

package phd

// Disassociation sub-protocol actions.

import (
	"github.com/giesekow/go-phd/apdu"
	"github.com/grailbio/go-dicom/dicomlog"
)

// actReleaseRequestNormalTx sends a release request with the Normal reason
// and arms the release guard timer.
var actReleaseRequestNormalTx = &stateAction{"disassociating-release-request-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		dicomlog.Vprintf(1, "phd.Conn(%s): releasing association", c.label)
		if sendAPDU(c, &apdu.Rlrq{Reason: apdu.ReleaseRequestReasonNormal}) {
			c.startTimer(c.params.releaseTimeout)
		}
	}}

// actOperatingAssocReleaseReqTx releases an operating association: open
// confirmed requests are retired first, then the release request goes out.
var actOperatingAssocReleaseReqTx = &stateAction{"operating-assoc-release-req-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if n := c.service.openCount(); n > 0 {
			dicomlog.Vprintf(1, "phd.Conn(%s): aborting %d open requests before release", c.label, n)
			c.service.drainAll(OutcomeAborted)
		}
		actReleaseRequestNormalTx.Callback(c, evt, data)
	}}

// actReleaseResponseNormalTx answers a release request. The response reason
// comes from the event data when the dispatcher supplied one.
var actReleaseResponseNormalTx = &stateAction{"disassociating-release-response-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		reason := apdu.ReleaseResponseReasonNormal
		if data != nil {
			reason = data.releaseReason
		}
		sendAPDU(c, &apdu.Rlre{Reason: reason})
	}}

// actReleaseProcessCompleted finishes an orderly release on receipt of the
// peer's release response.
var actReleaseProcessCompleted = &stateAction{"disassociating-release-completed",
	func(c *Conn, evt fsmEvent, data *eventData) {
		dicomlog.Vprintf(1, "phd.Conn(%s): release completed", c.label)
		c.stopTimer()
	}}

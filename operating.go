package phd

// Operating-state actions: the agent services inbound remote operations and
// transmits event reports; the manager ingests event reports and processes
// the responses to its confirmed requests.

import (
	"encoding/binary"

	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

func replyData(c *Conn, invokeID apdu.InvokeID, msg apdu.Message) {
	sendAPDU(c, &apdu.Prst{Data: apdu.DataApdu{InvokeID: invokeID, Message: msg}})
}

func replyRoer(c *Conn, invokeID apdu.InvokeID, errorValue uint16) {
	replyData(c, invokeID, &apdu.Roer{ErrorResult: apdu.ErrorResult{ErrorValue: errorValue}})
}

func replyRorj(c *Conn, invokeID apdu.InvokeID, problem uint16) {
	replyData(c, invokeID, &apdu.Rorj{RejectResult: apdu.RejectResult{Problem: problem}})
}

func prstOf(data *eventData) *apdu.Prst {
	if data == nil {
		return nil
	}
	p, _ := data.apdu.(*apdu.Prst)
	return p
}

// actAgentRoivGetMdsTx serves a Get: handle 0 answers with the MDS
// attribute list, anything else with no-such-object.
var actAgentRoivGetMdsTx = &stateAction{"agent-roiv-get-mds-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		get, ok := p.Data.Message.(*apdu.RoivGet)
		if !ok {
			return
		}
		if get.ObjHandle != dim.MDSHandle || c.mds == nil {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchObjectInstance)
			return
		}
		replyData(c, p.Data.InvokeID, &apdu.RorsGet{GetResult: apdu.GetResult{
			ObjHandle:     dim.MDSHandle,
			AttributeList: c.mds.Attributes(get.AttributeIDList.List),
		}})
	}}

// actAgentRoerNoTx rejects a remote invoke the agent does not serve in its
// current state.
var actAgentRoerNoTx = &stateAction{"agent-roer-no-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if p := prstOf(data); p != nil {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchAction)
		}
	}}

// actAgentRoivRespondTx answers an invoke with no specific handler.
var actAgentRoivRespondTx = &stateAction{"agent-roiv-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if p := prstOf(data); p != nil {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchAction)
		}
	}}

// actAgentRoivConfirmedEventReportRespondTx confirms an inbound event
// report with an empty reply.
var actAgentRoivConfirmedEventReportRespondTx = &stateAction{"agent-roiv-confirmed-event-report-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		rep, ok := p.Data.Message.(*apdu.RoivConfirmedEventReport)
		if !ok {
			return
		}
		replyData(c, p.Data.InvokeID, &apdu.RorsConfirmedEventReport{EventReportResult: apdu.EventReportResult{
			ObjHandle:   rep.ObjHandle,
			CurrentTime: rep.EventTime,
			EventType:   rep.EventType,
		}})
	}}

// agentApplySet applies an operational-state modification to a scanner and
// returns the echoed attributes.
func agentApplySet(c *Conn, arg *apdu.SetArgument) (apdu.AttributeList, bool) {
	if c.mds == nil {
		return apdu.AttributeList{}, false
	}
	obj := c.mds.GetObjectByHandle(arg.ObjHandle)
	if obj == nil || obj.Scanner == nil {
		return apdu.AttributeList{}, false
	}
	out := apdu.AttributeList{}
	for i := range arg.Modifications {
		mod := &arg.Modifications[i]
		if mod.Attribute.AttributeID != dim.MdcAttrOpStat || len(mod.Attribute.Value) < 2 {
			continue
		}
		state := binary.BigEndian.Uint16(mod.Attribute.Value)
		out.List = append(out.List, obj.Scanner.SetOperationalState(state))
	}
	return out, true
}

// actAgentRoivSetRespondTx applies an unconfirmed Set; no response goes
// out.
var actAgentRoivSetRespondTx = &stateAction{"agent-roiv-set-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		if set, ok := p.Data.Message.(*apdu.RoivSet); ok {
			agentApplySet(c, &set.SetArgument)
		}
	}}

// actAgentRoivConfirmedSetRespondTx applies a ConfirmedSet and echoes the
// modified attributes.
var actAgentRoivConfirmedSetRespondTx = &stateAction{"agent-roiv-confirmed-set-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		set, ok := p.Data.Message.(*apdu.RoivConfirmedSet)
		if !ok {
			return
		}
		attrs, ok := agentApplySet(c, &set.SetArgument)
		if !ok {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchObjectInstance)
			return
		}
		replyData(c, p.Data.InvokeID, &apdu.RorsConfirmedSet{SetResult: apdu.SetResult{
			ObjHandle:     set.ObjHandle,
			AttributeList: attrs,
		}})
	}}

// actAgentRoivActionRespondTx performs an unconfirmed action.
var actAgentRoivActionRespondTx = &stateAction{"agent-roiv-action-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		if act, ok := p.Data.Message.(*apdu.RoivAction); ok {
			c.agentPerformAction(&act.ActionArgument, 0, false)
		}
	}}

// actAgentRoivConfirmedActionRespondTx performs a ConfirmedAction and sends
// the response: set-time and the segment operations are served, everything
// else is no-such-action.
var actAgentRoivConfirmedActionRespondTx = &stateAction{"agent-roiv-confirmed-action-respond-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		if act, ok := p.Data.Message.(*apdu.RoivConfirmedAction); ok {
			c.agentPerformAction(&act.ActionArgument, p.Data.InvokeID, true)
		}
	}}

func (c *Conn) agentPerformAction(arg *apdu.ActionArgument, invokeID apdu.InvokeID, confirmed bool) {
	reply := func(args []byte) {
		if confirmed {
			replyData(c, invokeID, &apdu.RorsConfirmedAction{ActionResult: apdu.ActionResult{
				ObjHandle:      arg.ObjHandle,
				ActionType:     arg.ActionType,
				ActionInfoArgs: args,
			}})
		}
	}
	fail := func(errorValue uint16) {
		if confirmed {
			replyRoer(c, invokeID, errorValue)
		}
	}
	switch arg.ActionType {
	case dim.MdcActSetTime:
		st, err := apdu.DecodeSetTimeInvoke(arg.ActionInfoArgs)
		if err != nil {
			fail(apdu.ErrInvalidObjectInstance)
			return
		}
		dicomlog.Vprintf(1, "phd.Conn(%s): time set to %s", c.label, st)
		if c.mds != nil {
			c.mds.SetAttribute(apdu.AVAType{
				AttributeID: dim.MdcAttrTimeStampAbs,
				Value:       arg.ActionInfoArgs[:8],
			})
		}
		reply(nil)
	case dim.MdcActSegClr:
		store := c.objectPMStore(arg.ObjHandle)
		if store == nil {
			fail(apdu.ErrNoSuchObjectInstance)
			return
		}
		store.ClearSegmentResult(0, dim.ResultOK, 0)
		reply(nil)
	case dim.MdcActSegGetInfo:
		store := c.objectPMStore(arg.ObjHandle)
		if store == nil {
			fail(apdu.ErrNoSuchObjectInstance)
			return
		}
		encoded, err := apdu.EncodeSegmentInfoList(store.SegmentInfoList())
		if err != nil {
			fail(apdu.ErrNotAllowedByObject)
			return
		}
		reply(encoded)
	case dim.MdcActSegTrigXfer:
		store := c.objectPMStore(arg.ObjHandle)
		if store == nil {
			fail(apdu.ErrNoSuchObjectInstance)
			return
		}
		req, err := apdu.DecodeTrigSegmDataXferReq(arg.ActionInfoArgs)
		if err != nil {
			fail(apdu.ErrInvalidObjectInstance)
			return
		}
		rspCode := apdu.TsxrSuccessful
		if store.Segment(req.SegInstNo) == nil {
			rspCode = apdu.TsxrFailNoSuchSegment
		}
		encoded, err := apdu.EncodeTrigSegmDataXferRsp(&apdu.TrigSegmDataXferRsp{
			SegInstNo:       req.SegInstNo,
			TrigSegmXferRsp: rspCode,
		})
		if err != nil {
			fail(apdu.ErrNotAllowedByObject)
			return
		}
		reply(encoded)
	default:
		fail(apdu.ErrNoSuchAction)
	}
}

func (c *Conn) objectPMStore(handle apdu.Handle) *dim.PMStore {
	if c.mds == nil {
		return nil
	}
	obj := c.mds.GetObjectByHandle(handle)
	if obj == nil {
		return nil
	}
	return obj.PMStore
}

// actAgentSendEventTx transmits an application-initiated event report,
// confirmed through the invoke tracker when requested.
var actAgentSendEventTx = &stateAction{"agent-send-event-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if data == nil || data.report == nil {
			return
		}
		rep := data.report
		er := apdu.EventReport{
			ObjHandle: rep.handle,
			EventTime: 0xFFFFFFFF,
			EventType: rep.eventType,
			EventInfo: rep.eventInfo,
		}
		if rep.confirmed {
			timeout := rep.timeout
			if timeout == 0 {
				timeout = c.params.configTimeout
			}
			c.service.sendRequest(&apdu.RoivConfirmedEventReport{EventReport: er}, timeout, rep.callback)
			return
		}
		replyData(c, c.service.allocInvokeID(), &apdu.RoivEventReport{EventReport: er})
	}}

// actManagerRoerNoTx rejects an invoke the manager does not serve in its
// current state.
var actManagerRoerNoTx = &stateAction{"manager-roer-no-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if p := prstOf(data); p != nil {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchAction)
		}
	}}

// actManagerRoivNonEventReport rejects any operating-state invoke that is
// not an event report.
var actManagerRoivNonEventReport = &stateAction{"manager-roiv-non-event-report",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if p := prstOf(data); p != nil {
			replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchAction)
		}
	}}

// actManagerEventReport ingests an agent event report: MDS-level scan
// reports feed the dynamic data update path, scanner events go to their
// object, and segment-data events are ingested into the PM-store with a
// SegmentDataResult confirmation.
var actManagerEventReport = &stateAction{"manager-event-report",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		var er *apdu.EventReport
		confirmed := false
		switch m := p.Data.Message.(type) {
		case *apdu.RoivEventReport:
			er = &m.EventReport
		case *apdu.RoivConfirmedEventReport:
			er = &m.EventReport
			confirmed = true
		default:
			return
		}
		if er.ObjHandle == dim.MDSHandle {
			if c.mds == nil || !c.mds.DecodeMDSEvent(er.EventType, er.EventInfo) {
				replyRoer(c, p.Data.InvokeID, apdu.ErrNoSuchAction)
				return
			}
		} else if c.mds != nil {
			if obj := c.mds.GetObjectByHandle(er.ObjHandle); obj != nil && obj.Scanner != nil {
				obj.Scanner.DecodeScanEvent(c.mds, er.EventType, er.EventInfo)
			}
		}
		if !confirmed {
			return
		}
		if er.EventType == dim.MdcNotiSegmentData {
			c.managerSegmentDataEvent(p.Data.InvokeID, er)
			return
		}
		replyData(c, p.Data.InvokeID, &apdu.RorsConfirmedEventReport{EventReportResult: apdu.EventReportResult{
			ObjHandle:   er.ObjHandle,
			CurrentTime: er.EventTime,
			EventType:   er.EventType,
		}})
	}}

// managerSegmentDataEvent ingests a segment-data chunk and confirms with
// ManagerConfirm on success, ManagerAbort otherwise.
func (c *Conn) managerSegmentDataEvent(invokeID apdu.InvokeID, er *apdu.EventReport) {
	segEvt, err := apdu.DecodeSegmentDataEvent(er.EventInfo)
	if err != nil {
		replyRorj(c, invokeID, apdu.ProblemBadlyStructuredAPDU)
		return
	}
	result := apdu.SegmentDataResult{SegmDataEventDescr: segEvt.SegmDataEventDescr}
	result.SegmDataEventDescr.SegmEvtStatus = apdu.SevtstaManagerAbort
	store := c.objectPMStore(er.ObjHandle)
	if segEvt.SegmDataEventDescr.SegmEvtStatus&apdu.SevtstaAgentAbort == 0 && store != nil {
		if store.SegmentDataEvent(segEvt) {
			result.SegmDataEventDescr.SegmEvtStatus = apdu.SevtstaManagerConfirm
		}
	}
	encoded, err := apdu.EncodeSegmentDataResult(&result)
	if err != nil {
		dicomlog.Vprintf(0, "phd.Conn(%s): failed to encode segment result: %v", c.label, err)
		return
	}
	replyData(c, invokeID, &apdu.RorsConfirmedEventReport{EventReportResult: apdu.EventReportResult{
		ObjHandle:      er.ObjHandle,
		CurrentTime:    er.EventTime,
		EventType:      er.EventType,
		EventReplyInfo: encoded,
	}})
}

// actManagerGetResponse merges a Get result into the MDS.
var actManagerGetResponse = &stateAction{"manager-get-response",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil || c.mds == nil {
			return
		}
		rors, ok := p.Data.Message.(*apdu.RorsGet)
		if !ok {
			return
		}
		if rors.ObjHandle != dim.MDSHandle {
			dicomlog.Vprintf(1, "phd.Conn(%s): Get response for handle %d ignored", c.label, rors.ObjHandle)
			return
		}
		for _, ava := range rors.AttributeList.List {
			c.mds.SetAttribute(ava)
		}
	}}

// actManagerSetScannerResponse updates the scanner operational state with
// the value the agent confirmed.
var actManagerSetScannerResponse = &stateAction{"manager-set-scanner-response",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil || c.mds == nil {
			return
		}
		rors, ok := p.Data.Message.(*apdu.RorsConfirmedSet)
		if !ok {
			return
		}
		obj := c.mds.GetObjectByHandle(rors.ObjHandle)
		if obj == nil || obj.Scanner == nil {
			return
		}
		if v := rors.AttributeList.Lookup(dim.MdcAttrOpStat); len(v) >= 2 {
			obj.Scanner.SetOperationalStateResponse(binary.BigEndian.Uint16(v))
		}
	}}

// actManagerRorsConfirmedAction routes a confirmed-action response by
// action type.
var actManagerRorsConfirmedAction = &stateAction{"manager-rors-confirmed-action",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		rors, ok := p.Data.Message.(*apdu.RorsConfirmedAction)
		if !ok {
			return
		}
		switch rors.ActionType {
		case dim.MdcActDataRequest:
			rsp, err := apdu.DecodeDataResponse(rors.ActionInfoArgs)
			if err != nil {
				return
			}
			if c.mds != nil {
				c.mds.DecodeMDSEvent(rsp.EventType, rsp.EventInfo)
			}
		case dim.MdcActSetTime:
			// No state to update.
		case dim.MdcActSegClr:
			if store := c.objectPMStore(rors.ObjHandle); store != nil {
				store.ClearSegmentResult(0, dim.ResultOK, 0)
			}
		case dim.MdcActSegGetInfo:
			store := c.objectPMStore(rors.ObjHandle)
			if store == nil {
				return
			}
			list, err := apdu.DecodeSegmentInfoList(rors.ActionInfoArgs)
			if err != nil {
				dicomlog.Vprintf(0, "phd.Conn(%s): bad segment info response: %v", c.label, err)
				return
			}
			store.SegmentInfoResult(list, dim.ResultOK, 0)
		case dim.MdcActSegTrigXfer:
			store := c.objectPMStore(rors.ObjHandle)
			if store == nil {
				return
			}
			rsp, err := apdu.DecodeTrigSegmDataXferRsp(rors.ActionInfoArgs)
			if err != nil {
				dicomlog.Vprintf(0, "phd.Conn(%s): bad trig xfer response: %v", c.label, err)
				return
			}
			store.TrigSegmentDataXferResponse(rsp, dim.ResultOK, 0)
		}
	}}

// managerRouteErrorResponse recovers the originating invoke from the
// tracker and routes the failure to the owning object.
func (c *Conn) managerRouteErrorResponse(p *apdu.Prst, errtype int, errcode uint16) {
	req := c.service.checkKnown(p.Data.InvokeID)
	if req == nil {
		return
	}
	switch req.ActionType {
	case dim.MdcActSegClr:
		if store := c.objectPMStore(req.ObjHandle); store != nil {
			store.ClearSegmentResult(0, errtype, errcode)
		}
	case dim.MdcActSegGetInfo:
		if store := c.objectPMStore(req.ObjHandle); store != nil {
			store.SegmentInfoResult(nil, errtype, errcode)
		}
	case dim.MdcActSegTrigXfer:
		if store := c.objectPMStore(req.ObjHandle); store != nil {
			store.TrigSegmentDataXferResponse(nil, errtype, errcode)
		}
	}
}

// actManagerRoerReceived handles a remote operation error for an open
// request.
var actManagerRoerReceived = &stateAction{"manager-roer-received",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		c.managerRouteErrorResponse(p, dim.ResultRoer, data.errorValue)
	}}

// actManagerRorjReceived handles a remote operation reject for an open
// request.
var actManagerRorjReceived = &stateAction{"manager-rorj-received",
	func(c *Conn, evt fsmEvent, data *eventData) {
		p := prstOf(data)
		if p == nil {
			return
		}
		c.managerRouteErrorResponse(p, dim.ResultRorj, data.problem)
	}}

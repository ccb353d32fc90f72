package phd

// The APDU dispatcher: converts a parsed inbound APDU into the FSM event
// (and event data) appropriate for the connection role and current state.

import (
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

// dispatchAPDU runs on the pump goroutine, outside any action.
func (c *Conn) dispatchAPDU(a apdu.APDU) {
	if c.role == RoleAgent {
		c.dispatchAgent(a)
	} else {
		c.dispatchManager(a)
	}
}

func releaseData() *eventData {
	return &eventData{releaseReason: apdu.ReleaseResponseReasonNormal}
}

func (c *Conn) dispatchAgent(a apdu.APDU) {
	switch v := a.(type) {
	case *apdu.Aarq:
		c.processEvent(evtRxAarq, nil)
	case *apdu.Aare:
		if c.state != StateAssociating {
			c.processEvent(evtRxAare, nil)
			return
		}
		switch v.Result {
		case apdu.Accepted:
			c.processEvent(evtRxAareAcceptedKnown, &eventData{apdu: a})
		case apdu.AcceptedUnknownConfig:
			c.processEvent(evtRxAareAcceptedUnknown, &eventData{apdu: a})
		default:
			dicomlog.Vprintf(1, "phd.Conn(%s): association rejected, code %d", c.label, v.Result)
			c.processEvent(evtRxAareRejected, nil)
		}
	case *apdu.Rlrq:
		c.processEvent(evtRxRlrq, releaseData())
	case *apdu.Rlre:
		c.processEvent(evtRxRlre, nil)
	case *apdu.Abrt:
		c.processEvent(evtRxAbrt, nil)
	case *apdu.Prst:
		c.dispatchAgentPrst(v)
	default:
		dicomlog.Vprintf(0, "phd.Conn(%s): unknown APDU %v, aborting", c.label, a)
		c.processEvent(evtReqAssocAbort, nil)
	}
}

func (c *Conn) dispatchAgentPrst(p *apdu.Prst) {
	msg := p.Data.Message
	data := &eventData{apdu: p}
	switch {
	case apdu.IsRoiv(msg):
		switch msg.(type) {
		case *apdu.RoivGet:
			c.processEvent(evtRxRoivGet, data)
		case *apdu.RoivSet:
			c.processEvent(evtRxRoivSet, data)
		case *apdu.RoivConfirmedSet:
			c.processEvent(evtRxRoivConfirmedSet, data)
		case *apdu.RoivAction:
			c.processEvent(evtRxRoivAction, data)
		case *apdu.RoivConfirmedAction:
			c.processEvent(evtRxRoivConfirmedAction, data)
		case *apdu.RoivEventReport:
			c.processEvent(evtRxRoivEventReport, data)
		case *apdu.RoivConfirmedEventReport:
			c.processEvent(evtRxRoivConfirmedEventReport, data)
		default:
			c.processEvent(evtRxRoiv, nil)
		}
	case apdu.IsRors(msg):
		if c.state == StateDisassociating {
			// Any response during release is a protocol error,
			// known invoke or not.
			c.processEvent(evtRxRors, data)
			return
		}
		c.agentProcessRors(p)
	case apdu.IsRoer(msg):
		c.agentProcessResponse(p, evtRxRoer, OutcomeRoer, msg.(*apdu.Roer).ErrorValue)
	case apdu.IsRorj(msg):
		c.agentProcessResponse(p, evtRxRorj, OutcomeRorj, msg.(*apdu.Rorj).Problem)
	}
}

// agentProcessRors matches a RORS against the tracker, refines the event and
// retires the invoke. Unknown invoke ids are dropped without an event.
func (c *Conn) agentProcessRors(p *apdu.Prst) {
	if c.service.checkKnown(p.Data.InvokeID) == nil {
		dicomlog.Vprintf(1, "phd.Conn(%s): RORS with unknown invoke %d, dropped", c.label, p.Data.InvokeID)
		return
	}
	data := &eventData{apdu: p}
	switch m := p.Data.Message.(type) {
	case *apdu.RorsConfirmedEventReport:
		c.agentProcessConfirmedEventReport(m, data)
	case *apdu.RorsGet:
		c.processEvent(evtRxRorsGet, data)
	case *apdu.RorsConfirmedAction:
		c.processEvent(evtRxRorsConfirmedAction, data)
	case *apdu.RorsConfirmedSet:
		c.processEvent(evtRxRorsConfirmedSet, data)
	default:
		dicomlog.Vprintf(0, "phd.Conn(%s): RORS with unexpected choice 0x%04x", c.label, p.Data.Message.MessageChoice())
	}
	c.service.retire(p.Data.InvokeID, RequestResult{Outcome: OutcomeOK, Response: &p.Data})
}

// agentProcessConfirmedEventReport refines the NotiConfig response while a
// configuration report is outstanding: the decoded config_result selects
// the known/unknown refinement.
func (c *Conn) agentProcessConfirmedEventReport(m *apdu.RorsConfirmedEventReport, data *eventData) {
	if c.state != StateWaitingApproval && c.state != StateConfigSending {
		c.processEvent(evtRxRorsConfirmedEventReport, data)
		return
	}
	if m.ObjHandle != dim.MDSHandle || m.EventType != dim.MdcNotiConfig {
		c.processEvent(evtRxRors, data)
		return
	}
	rsp, err := apdu.DecodeConfigReportRsp(m.EventReplyInfo)
	if err != nil {
		c.processEvent(evtRxRors, data)
		return
	}
	if rsp.ConfigResult == apdu.AcceptedConfig {
		c.processEvent(evtRxRorsConfirmedEventReportKnown, data)
	} else {
		c.processEvent(evtRxRorsConfirmedEventReportUnknown, data)
	}
}

func (c *Conn) agentProcessResponse(p *apdu.Prst, evt fsmEvent, outcome RequestOutcome, code uint16) {
	if c.state == StateDisassociating {
		c.processEvent(evt, &eventData{apdu: p})
		return
	}
	if c.service.checkKnown(p.Data.InvokeID) == nil {
		dicomlog.Vprintf(1, "phd.Conn(%s): %s with unknown invoke %d, dropped", c.label, evt, p.Data.InvokeID)
		return
	}
	c.processEvent(evt, &eventData{apdu: p, errorValue: code, problem: code})
	c.service.retire(p.Data.InvokeID, RequestResult{Outcome: outcome, Code: code})
}

func (c *Conn) dispatchManager(a apdu.APDU) {
	switch v := a.(type) {
	case *apdu.Aarq:
		if c.state == StateUnassociated {
			c.classifyAarq(v)
			return
		}
		c.processEvent(evtRxAarq, nil)
	case *apdu.Aare:
		c.processEvent(evtRxAare, nil)
	case *apdu.Rlrq:
		c.processEvent(evtRxRlrq, releaseData())
	case *apdu.Rlre:
		c.processEvent(evtRxRlre, nil)
	case *apdu.Abrt:
		c.processEvent(evtRxAbrt, nil)
	case *apdu.Prst:
		c.dispatchManagerPrst(v)
	default:
		dicomlog.Vprintf(0, "phd.Conn(%s): unknown APDU %v, aborting", c.label, a)
		c.processEvent(evtReqAssocAbort, nil)
	}
}

// classifyAarq decides the acceptability of an association request: the
// only accepted data protocol is 20601, and the configuration is known when
// the agent's dev-config-id is in the catalog.
func (c *Conn) classifyAarq(v *apdu.Aarq) {
	proto := v.Proto20601()
	if proto == nil || v.AssocVersion != apdu.AssocVersion1 {
		dicomlog.Vprintf(1, "phd.Conn(%s): AARQ without acceptable data protocol", c.label)
		c.processEvent(evtRxAarqUnacceptableConfiguration, &eventData{aareResult: apdu.RejectedPermanent})
		return
	}
	info, err := apdu.DecodePhdAssociationInformation(proto.Info)
	if err != nil {
		dicomlog.Vprintf(0, "phd.Conn(%s): bad association information: %v", c.label, err)
		c.processEvent(evtRxAarqUnacceptableConfiguration, &eventData{aareResult: apdu.RejectedPermanent})
		return
	}
	c.peerAssoc = info
	if c.catalog.Known(info.DevConfigID) {
		c.processEvent(evtRxAarqAcceptableAndKnownConfiguration, &eventData{apdu: v})
	} else {
		c.processEvent(evtRxAarqAcceptableAndUnknownConfiguration, &eventData{apdu: v})
	}
}

func (c *Conn) dispatchManagerPrst(p *apdu.Prst) {
	msg := p.Data.Message
	data := &eventData{apdu: p}
	switch {
	case apdu.IsRoiv(msg):
		c.managerProcessRoiv(p, data)
	case apdu.IsRors(msg):
		if c.state != StateOperating {
			c.processEvent(evtRxRors, data)
			return
		}
		c.managerProcessRors(p)
	case apdu.IsRoer(msg):
		c.managerProcessResponse(p, evtRxRoer, OutcomeRoer, msg.(*apdu.Roer).ErrorValue)
	case apdu.IsRorj(msg):
		c.managerProcessResponse(p, evtRxRorj, OutcomeRorj, msg.(*apdu.Rorj).Problem)
	}
}

func (c *Conn) managerProcessRoiv(p *apdu.Prst, data *eventData) {
	// WaitingForConfig distinguishes every operation; the other states
	// only care whether the invoke is a (confirmed) event report.
	if c.state == StateWaitingForConfig {
		switch p.Data.Message.(type) {
		case *apdu.RoivConfirmedEventReport:
			c.processEvent(evtRxRoivConfirmedEventReport, data)
		case *apdu.RoivEventReport:
			c.processEvent(evtRxRoivEventReport, data)
		case *apdu.RoivGet:
			c.processEvent(evtRxRoivGet, data)
		case *apdu.RoivSet:
			c.processEvent(evtRxRoivSet, data)
		case *apdu.RoivConfirmedSet:
			c.processEvent(evtRxRoivConfirmedSet, data)
		case *apdu.RoivAction:
			c.processEvent(evtRxRoivAction, data)
		case *apdu.RoivConfirmedAction:
			c.processEvent(evtRxRoivConfirmedAction, data)
		}
		return
	}
	switch p.Data.Message.(type) {
	case *apdu.RoivEventReport:
		c.processEvent(evtRxRoivEventReport, data)
	case *apdu.RoivConfirmedEventReport:
		c.processEvent(evtRxRoivConfirmedEventReport, data)
	default:
		c.processEvent(evtRxRoivAllExceptConfirmedEventReport, data)
	}
}

func (c *Conn) managerProcessRors(p *apdu.Prst) {
	if c.service.checkKnown(p.Data.InvokeID) == nil {
		dicomlog.Vprintf(1, "phd.Conn(%s): RORS with unknown invoke %d, dropped", c.label, p.Data.InvokeID)
		return
	}
	data := &eventData{apdu: p}
	switch p.Data.Message.(type) {
	case *apdu.RorsGet:
		c.processEvent(evtRxRorsGet, data)
	case *apdu.RorsConfirmedAction:
		c.processEvent(evtRxRorsConfirmedAction, data)
	case *apdu.RorsConfirmedSet:
		c.processEvent(evtRxRorsConfirmedSet, data)
	case *apdu.RorsConfirmedEventReport:
		c.processEvent(evtRxRorsConfirmedEventReport, data)
	default:
		dicomlog.Vprintf(0, "phd.Conn(%s): RORS with unexpected choice 0x%04x", c.label, p.Data.Message.MessageChoice())
	}
	c.service.retire(p.Data.InvokeID, RequestResult{Outcome: OutcomeOK, Response: &p.Data})
}

func (c *Conn) managerProcessResponse(p *apdu.Prst, evt fsmEvent, outcome RequestOutcome, code uint16) {
	if c.state != StateOperating {
		// The table row (check-invoke-id rows in WaitingForConfig, abort
		// rows in Disassociating) decides what to do.
		c.processEvent(evt, &eventData{apdu: p, errorValue: code, problem: code})
		return
	}
	if c.service.checkKnown(p.Data.InvokeID) == nil {
		dicomlog.Vprintf(1, "phd.Conn(%s): %s with unknown invoke %d, dropped", c.label, evt, p.Data.InvokeID)
		return
	}
	c.processEvent(evt, &eventData{apdu: p, errorValue: code, problem: code})
	c.service.retire(p.Data.InvokeID, RequestResult{Outcome: outcome, Code: code})
}

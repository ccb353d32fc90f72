package phd

// Association sub-protocol actions: AARQ/AARE construction and the common
// abort/disconnect transmissions.

import (
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

// buildAgentAssocInfo populates the agent's PhdAssociationInformation for
// the AARQ data_proto_info.
func buildAgentAssocInfo(c *Conn) *apdu.PhdAssociationInformation {
	return &apdu.PhdAssociationInformation{
		ProtocolVersion:     apdu.AssocVersion1,
		EncodingRules:       apdu.MDER,
		NomenclatureVersion: apdu.NomVersion1,
		FunctionalUnits:     0,
		SystemType:          apdu.SysTypeAgent,
		SystemID:            c.systemID,
		DevConfigID:         c.devConfigID,
		DataReqModeCapab: apdu.DataReqModeCapab{
			DataReqModeFlags:        apdu.DataReqSuppInitAgent,
			DataReqInitAgentCount:   1,
			DataReqInitManagerCount: 0,
		},
	}
}

// buildAare populates an AARE with the given result and responder system
// type.
func buildAare(c *Conn, result uint16, sysType uint32) (*apdu.Aare, error) {
	info := &apdu.PhdAssociationInformation{
		ProtocolVersion:     apdu.AssocVersion1,
		EncodingRules:       apdu.MDER,
		NomenclatureVersion: apdu.NomVersion1,
		FunctionalUnits:     0,
		SystemType:          sysType,
		SystemID:            c.systemID,
		DevConfigID:         apdu.ManagerConfigResponse,
	}
	encoded, err := apdu.EncodePhdAssociationInformation(info)
	if err != nil {
		return nil, err
	}
	return &apdu.Aare{
		Result:   result,
		Selected: apdu.DataProto{ID: apdu.DataProtoID20601, Info: encoded},
	}, nil
}

func sendAare(c *Conn, result uint16) {
	aare, err := buildAare(c, result, apdu.SysTypeManager)
	if err != nil {
		dicomlog.Vprintf(0, "phd.Conn(%s): failed to build AARE: %v", c.label, err)
		return
	}
	sendAPDU(c, aare)
}

// actAgentMdsInit initializes the agent's MDS when the transport comes up.
var actAgentMdsInit = &stateAction{"agent-mds-init",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if c.mds == nil {
			c.mds = dim.NewMDS(c.systemID, c.devConfigID)
		}
	}}

// actAarqTx sends the association request and starts the association guard
// timer.
var actAarqTx = &stateAction{"assoc-aarq-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		info := buildAgentAssocInfo(c)
		encoded, err := apdu.EncodePhdAssociationInformation(info)
		if err != nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): failed to encode association info: %v", c.label, err)
			return
		}
		aarq := &apdu.Aarq{
			AssocVersion: apdu.AssocVersion1,
			DataProtoList: []apdu.DataProto{
				{ID: apdu.DataProtoID20601, Info: encoded},
			},
		}
		if sendAPDU(c, aarq) {
			c.startTimer(c.params.associationTimeout)
		}
	}}

// actAgentAareRejectedPermanentTx answers a peer that tries to associate
// with an agent.
var actAgentAareRejectedPermanentTx = &stateAction{"assoc-aare-rejected-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		aare, err := buildAare(c, apdu.RejectedPermanent, apdu.SysTypeAgent)
		if err != nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): failed to build AARE: %v", c.label, err)
			return
		}
		sendAPDU(c, aare)
	}}

// actAssocAcceptConfigTx accepts an association whose configuration is
// already known and instantiates the peer's objects from the catalog.
var actAssocAcceptConfigTx = &stateAction{"assoc-accept-config-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		c.managerInitMDS()
		sendAare(c, apdu.Accepted)
	}}

// actAssocUnacceptConfigTx rejects the association permanently.
var actAssocUnacceptConfigTx = &stateAction{"assoc-unaccept-config-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		result := apdu.RejectedPermanent
		if data != nil && data.aareResult != 0 {
			result = data.aareResult
		}
		sendAare(c, result)
	}}

// managerInitMDS builds the manager's view of the peer from the association
// information and, when cached, the catalog's object list.
func (c *Conn) managerInitMDS() {
	if c.peerAssoc == nil {
		return
	}
	c.mds = dim.NewMDS(c.peerAssoc.SystemID, c.peerAssoc.DevConfigID)
	if c.observation != nil {
		c.mds.OnObservation = c.observation
	}
	if cfg := c.catalog.Lookup(c.peerAssoc.DevConfigID); cfg != nil {
		c.mds.ConfigureFrom(cfg)
	}
}

// actDisconnectTx records the transport teardown; the tracker drain and
// timer cancellation run on the transition into Disconnected.
var actDisconnectTx = &stateAction{"disconnect-ind",
	func(c *Conn, evt fsmEvent, data *eventData) {
		dicomlog.Vprintf(1, "phd.Conn(%s): transport disconnected", c.label)
	}}

// actAbortUndefinedTx transmits an ABRT with the undefined reason.
var actAbortUndefinedTx = &stateAction{"abort-undefined-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		sendAPDU(c, &apdu.Abrt{Reason: apdu.AbortReasonUndefined})
	}}

// actCheckInvokeIDAbortTx handles a response arriving in WaitingForConfig:
// a response to an invoke this manager actually has open is a protocol
// error and aborts the association; anything else is ignored (remark on
// page 147).
var actCheckInvokeIDAbortTx = &stateAction{"check-invoke-id-abort-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		if data == nil || data.apdu == nil {
			return
		}
		prst, ok := data.apdu.(*apdu.Prst)
		if !ok {
			return
		}
		if c.service.checkKnown(prst.Data.InvokeID) == nil {
			return
		}
		c.service.retire(prst.Data.InvokeID, RequestResult{Outcome: OutcomeAborted})
		c.queueEvent(evtReqAssocAbort, nil)
	}}

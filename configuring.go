package phd

// Configuration-negotiation actions for both roles.

import (
	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/grailbio/go-dicom/dicomlog"
)

// actSendConfigTx sends the agent's configuration as a confirmed NotiConfig
// event report, tracked by the invoke service with the configuration-report
// timeout.
var actSendConfigTx = &stateAction{"configuring-send-config-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		cfg := c.agentConfig
		if cfg == nil {
			cfg = dim.StdConfigObjectList(c.devConfigID)
		}
		if cfg == nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): no configuration for id 0x%04x", c.label, c.devConfigID)
			c.queueEvent(evtReqAssocAbort, nil)
			return
		}
		report := &apdu.ConfigReport{ConfigReportID: c.devConfigID, ConfigObjList: *cfg}
		encoded, err := apdu.EncodeConfigReport(report)
		if err != nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): failed to encode config report: %v", c.label, err)
			return
		}
		dicomlog.Vprintf(1, "phd.Conn(%s): sending configuration, manager does not know it", c.label)
		msg := &apdu.RoivConfirmedEventReport{EventReport: apdu.EventReport{
			ObjHandle: dim.MDSHandle,
			EventTime: 0xFFFFFFFF,
			EventType: dim.MdcNotiConfig,
			EventInfo: encoded,
		}}
		c.service.sendRequest(msg, c.params.configTimeout, nil)
	}}

// actConfiguringTransitionWaitingForConfig accepts the association with the
// unknown-config result and waits for the agent's configuration, guarded by
// the association timer.
var actConfiguringTransitionWaitingForConfig = &stateAction{"configuring-transition-waiting-for-config",
	func(c *Conn, evt fsmEvent, data *eventData) {
		c.managerInitMDS()
		sendAare(c, apdu.AcceptedUnknownConfig)
		c.startTimer(c.params.associationTimeout)
	}}

// actConfiguringPerformConfiguration decodes the agent-supplied
// configuration and produces the verdict event: malformed reports are bad,
// catalog hits are known, and everything else is put to the application (or
// accepted and learned when no checker is installed).
var actConfiguringPerformConfiguration = &stateAction{"configuring-perform-configuration",
	func(c *Conn, evt fsmEvent, data *eventData) {
		c.stopTimer()
		prst, ok := data.apdu.(*apdu.Prst)
		if !ok {
			return
		}
		rep, ok := prst.Data.Message.(*apdu.RoivConfirmedEventReport)
		if !ok {
			return
		}
		pending := &pendingConfig{
			invokeID:  prst.Data.InvokeID,
			objHandle: rep.ObjHandle,
			eventTime: rep.EventTime,
			eventType: rep.EventType,
		}
		if rep.ObjHandle != dim.MDSHandle || rep.EventType != dim.MdcNotiConfig {
			c.pendingConfig = pending
			c.queueEvent(evtReqAgentSuppliedBadConfiguration, nil)
			return
		}
		report, err := apdu.DecodeConfigReport(rep.EventInfo)
		if err != nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): malformed config report: %v", c.label, err)
			c.pendingConfig = pending
			c.queueEvent(evtReqAgentSuppliedBadConfiguration, nil)
			return
		}
		pending.report = report
		c.pendingConfig = pending
		if c.catalog.Known(report.ConfigReportID) {
			c.queueEvent(evtReqAgentSuppliedKnownConfiguration, nil)
			return
		}
		if c.configCheck != nil {
			c.configCheck(c, report)
			return
		}
		// No application checker: accept and learn the configuration.
		c.catalog.Learn(report.ConfigReportID, &report.ConfigObjList)
		c.queueEvent(evtReqAgentSuppliedKnownConfiguration, nil)
	}}

// actConfiguringNewMeasurementsResponseTx handles a confirmed event report
// that arrives while a configuration is already being checked: the agent
// re-sent its configuration, so the check restarts with the new report.
var actConfiguringNewMeasurementsResponseTx = &stateAction{"configuring-new-measurements-response-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		actConfiguringPerformConfiguration.Callback(c, evt, data)
	}}

// actConfiguringConfigurationResponseTx answers the pending configuration
// report: AcceptedConfig when the verdict event was the known
// configuration, UnsupportedConfig otherwise.
var actConfiguringConfigurationResponseTx = &stateAction{"configuring-configuration-response-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		pending := c.pendingConfig
		if pending == nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): configuration response without pending report", c.label)
			return
		}
		c.pendingConfig = nil
		result := apdu.UnsupportedConfig
		if evt == evtReqAgentSuppliedKnownConfiguration {
			result = apdu.AcceptedConfig
			if pending.report != nil {
				c.catalog.Learn(pending.report.ConfigReportID, &pending.report.ConfigObjList)
				if c.mds != nil {
					c.mds.ConfigureFrom(&pending.report.ConfigObjList)
				}
			}
		}
		reportID := uint16(0)
		if pending.report != nil {
			reportID = pending.report.ConfigReportID
		}
		rsp := &apdu.ConfigReportRsp{ConfigReportID: reportID, ConfigResult: result}
		encoded, err := apdu.EncodeConfigReportRsp(rsp)
		if err != nil {
			dicomlog.Vprintf(0, "phd.Conn(%s): failed to encode config response: %v", c.label, err)
			return
		}
		sendAPDU(c, &apdu.Prst{Data: apdu.DataApdu{
			InvokeID: pending.invokeID,
			Message: &apdu.RorsConfirmedEventReport{EventReportResult: apdu.EventReportResult{
				ObjHandle:      pending.objHandle,
				CurrentTime:    pending.eventTime,
				EventType:      pending.eventType,
				EventReplyInfo: encoded,
			}},
		}})
		if evt != evtReqAgentSuppliedKnownConfiguration {
			// Still waiting for a usable configuration.
			c.startTimer(c.params.associationTimeout)
		}
	}}

// actConfiguringConfigurationRorjTx rejects a malformed configuration
// report.
var actConfiguringConfigurationRorjTx = &stateAction{"configuring-configuration-rorj-tx",
	func(c *Conn, evt fsmEvent, data *eventData) {
		pending := c.pendingConfig
		if pending == nil {
			return
		}
		c.pendingConfig = nil
		sendAPDU(c, &apdu.Prst{Data: apdu.DataApdu{
			InvokeID: pending.invokeID,
			Message:  &apdu.Rorj{RejectResult: apdu.RejectResult{Problem: apdu.ProblemBadlyStructuredAPDU}},
		}})
		c.startTimer(c.params.associationTimeout)
	}}

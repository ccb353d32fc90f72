// Package phd implements the IEEE 11073-20601 communication model: the
// Agent and Manager association state machines, the per-state APDU
// dispatcher, the transition actions and the confirmed-service invoke
// tracker.
package phd

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomlog"
)

// Role selects which of the two state tables a connection runs.
type Role int

const (
	RoleAgent Role = iota
	RoleManager
)

func (r Role) String() string {
	if r == RoleAgent {
		return "agent"
	}
	return "manager"
}

// State is one state of the 20601 communication state machine. The Agent
// uses Disconnected, Unassociated, Associating, ConfigSending,
// WaitingApproval, Operating and Disassociating; the Manager uses
// Disconnected, Unassociated, WaitingForConfig, CheckingConfig, Operating
// and Disassociating.
type State int

const (
	StateDisconnected State = iota
	StateDisassociating
	StateUnassociated
	StateAssociating
	StateConfigSending
	StateWaitingApproval
	StateOperating
	StateCheckingConfig
	StateWaitingForConfig
)

var stateNames = map[State]string{
	StateDisconnected:     "disconnected",
	StateDisassociating:   "disassociating",
	StateUnassociated:     "unassociated",
	StateAssociating:      "associating",
	StateConfigSending:    "config_sending",
	StateWaitingApproval:  "waiting_approval",
	StateOperating:        "operating",
	StateCheckingConfig:   "checking_config",
	StateWaitingForConfig: "waiting_for_config",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type fsmEvent int

const (
	evtNone fsmEvent = iota
	evtIndTransportConnection
	evtIndTransportDisconnect
	evtIndTimeout
	evtReqAssocRel
	evtReqAssocAbort
	evtReqAgentSuppliedUnknownConfiguration
	evtReqAgentSuppliedKnownConfiguration
	evtReqAgentSuppliedBadConfiguration
	evtReqSendConfig
	evtReqSendEvent
	evtReqAssoc
	evtRxAarq
	evtRxAarqAcceptableAndKnownConfiguration
	evtRxAarqAcceptableAndUnknownConfiguration
	evtRxAarqUnacceptableConfiguration
	evtRxAare
	evtRxAareRejected
	evtRxAareAcceptedKnown
	evtRxAareAcceptedUnknown
	evtRxRlrq
	evtRxRlre
	evtRxAbrt
	evtRxPrst
	evtRxRoiv
	evtRxRoivEventReport
	evtRxRoivConfirmedEventReport
	evtRxRoivAllExceptConfirmedEventReport
	evtRxRoivGet
	evtRxRoivSet
	evtRxRoivConfirmedSet
	evtRxRoivAction
	evtRxRoivConfirmedAction
	evtRxRors
	evtRxRorsConfirmedEventReport
	evtRxRorsConfirmedEventReportUnknown
	evtRxRorsConfirmedEventReportKnown
	evtRxRorsGet
	evtRxRorsConfirmedSet
	evtRxRorsConfirmedAction
	evtRxRoer
	evtRxRorj
)

var eventNames = map[fsmEvent]string{
	evtIndTransportConnection:                  "ind_transport_connection",
	evtIndTransportDisconnect:                  "ind_transport_disconnect",
	evtIndTimeout:                              "ind_timeout",
	evtReqAssocRel:                             "req_assoc_rel",
	evtReqAssocAbort:                           "req_assoc_abort",
	evtReqAgentSuppliedUnknownConfiguration:    "req_agent_supplied_unknown_configuration",
	evtReqAgentSuppliedKnownConfiguration:      "req_agent_supplied_known_configuration",
	evtReqAgentSuppliedBadConfiguration:        "req_agent_supplied_bad_configuration",
	evtReqSendConfig:                           "req_send_config",
	evtReqSendEvent:                            "req_send_event",
	evtReqAssoc:                                "req_assoc",
	evtRxAarq:                                  "rx_aarq",
	evtRxAarqAcceptableAndKnownConfiguration:   "rx_aarq_acceptable_and_known_configuration",
	evtRxAarqAcceptableAndUnknownConfiguration: "rx_aarq_acceptable_and_unknown_configuration",
	evtRxAarqUnacceptableConfiguration:         "rx_aarq_unacceptable_configuration",
	evtRxAare:                                  "rx_aare",
	evtRxAareRejected:                          "rx_aare_rejected",
	evtRxAareAcceptedKnown:                     "rx_aare_accepted_known",
	evtRxAareAcceptedUnknown:                   "rx_aare_accepted_unknown",
	evtRxRlrq:                                  "rx_rlrq",
	evtRxRlre:                                  "rx_rlre",
	evtRxAbrt:                                  "rx_abrt",
	evtRxPrst:                                  "rx_prst",
	evtRxRoiv:                                  "rx_roiv",
	evtRxRoivEventReport:                       "rx_roiv_event_report",
	evtRxRoivConfirmedEventReport:              "rx_roiv_confirmed_event_report",
	evtRxRoivAllExceptConfirmedEventReport:     "rx_roiv_all_except_confirmed_event_report",
	evtRxRoivGet:                               "rx_roiv_get",
	evtRxRoivSet:                               "rx_roiv_set",
	evtRxRoivConfirmedSet:                      "rx_roiv_confirmed_set",
	evtRxRoivAction:                            "rx_roiv_action",
	evtRxRoivConfirmedAction:                   "rx_roiv_confirmed_action",
	evtRxRors:                                  "rx_rors",
	evtRxRorsConfirmedEventReport:              "rx_rors_confirmed_event_report",
	evtRxRorsConfirmedEventReportUnknown:       "rx_rors_confirmed_event_report_unknown",
	evtRxRorsConfirmedEventReportKnown:         "rx_rors_confirmed_event_report_known",
	evtRxRorsGet:                               "rx_rors_get",
	evtRxRorsConfirmedSet:                      "rx_rors_confirmed_set",
	evtRxRorsConfirmedAction:                   "rx_rors_confirmed_action",
	evtRxRoer:                                  "rx_roer",
	evtRxRorj:                                  "rx_rorj",
}

func (e fsmEvent) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("evt(%d)", int(e))
}

// stateAction is a named post-action referenced by the transition tables.
// The action runs after the state has been updated; it may send APDUs, arm
// timers and allocate invokes, but must not call processEvent synchronously
// (events it produces are queued through the pump).
type stateAction struct {
	Name     string
	Callback func(c *Conn, evt fsmEvent, data *eventData)
}

func (a *stateAction) String() string { return a.Name }

// transitionRule is one row of a state table. The engine uses the first row
// matching (current, input).
type transitionRule struct {
	current State
	input   fsmEvent
	next    State
	action  *stateAction
}

// processResult is the outcome of one processEvent call.
type processResult int

const (
	// StateChanged: a rule matched and the state differs from before.
	StateChanged processResult = iota
	// StateUnchanged: a rule matched but kept the state.
	StateUnchanged
	// NotProcessed: no rule matched; the event was silently dropped.
	NotProcessed
)

// processEvent applies the first matching transition rule for the current
// state. It runs on the connection pump goroutine only.
func (c *Conn) processEvent(evt fsmEvent, data *eventData) processResult {
	dicomlog.Vprintf(2, "phd.fsm(%s): state <%s> event <%s>", c.label, c.state, evt)
	for i := range c.table {
		rule := &c.table[i]
		if rule.current != c.state || rule.input != evt {
			continue
		}
		was := c.state
		c.state = rule.next
		if was != rule.next {
			dicomlog.Vprintf(1, "phd.fsm(%s): transition <%s> -> <%s> on <%s>", c.label, was, rule.next, evt)
			// A state change invalidates the previous state's guard
			// timer; actions arm their own afterwards.
			c.stopTimer()
		}
		if rule.action != nil {
			dicomlog.Vprintf(2, "phd.fsm(%s): running action %s", c.label, rule.action)
			rule.action.Callback(c, evt, data)
		}
		if was != rule.next {
			c.stateTransitioned(was, rule.next)
			return StateChanged
		}
		return StateUnchanged
	}
	dicomlog.Vprintf(2, "phd.fsm(%s): no rule for state <%s> event <%s>, ignored", c.label, c.state, evt)
	return NotProcessed
}

// agentStateTable is the IEEE 11073-20601 agent state table.
var agentStateTable = []transitionRule{
	{StateDisconnected, evtIndTransportConnection, StateUnassociated, actAgentMdsInit}, // 1.1

	{StateUnassociated, evtIndTransportDisconnect, StateDisconnected, actDisconnectTx},  // 2.2
	{StateUnassociated, evtReqAssoc, StateAssociating, actAarqTx},                       // 2.5
	{StateUnassociated, evtReqAssocRel, StateUnassociated, nil},                         // 2.6
	{StateUnassociated, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},       // 2.7
	{StateUnassociated, evtRxAarq, StateUnassociated, actAgentAareRejectedPermanentTx},  // 2.8
	{StateUnassociated, evtRxAare, StateUnassociated, actAbortUndefinedTx},              // 2.12
	{StateUnassociated, evtRxRlrq, StateUnassociated, actAbortUndefinedTx},              // 2.16
	{StateUnassociated, evtRxRlre, StateUnassociated, nil},                              // 2.17
	{StateUnassociated, evtRxAbrt, StateUnassociated, nil},                              // 2.18
	{StateUnassociated, evtRxPrst, StateUnassociated, actAbortUndefinedTx},              // 2.19

	{StateAssociating, evtIndTransportDisconnect, StateDisconnected, nil},             // 3.2
	{StateAssociating, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},         // 3.4
	{StateAssociating, evtReqAssocRel, StateUnassociated, actReleaseRequestNormalTx},  // 3.6
	{StateAssociating, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},      // 3.7
	{StateAssociating, evtRxAarq, StateUnassociated, actAgentAareRejectedPermanentTx}, // 3.8
	{StateAssociating, evtRxAareAcceptedKnown, StateOperating, nil},                   // 3.13
	{StateAssociating, evtRxAareAcceptedUnknown, StateConfigSending, nil},             // 3.14
	{StateAssociating, evtRxAareRejected, StateUnassociated, nil},                     // 3.15
	{StateAssociating, evtRxRlrq, StateUnassociated, actAbortUndefinedTx},             // 3.16
	{StateAssociating, evtRxRlre, StateUnassociated, actAbortUndefinedTx},             // 3.17
	{StateAssociating, evtRxAbrt, StateUnassociated, nil},                             // 3.18
	{StateAssociating, evtRxPrst, StateUnassociated, actAbortUndefinedTx},             // 3.19

	{StateConfigSending, evtIndTransportDisconnect, StateDisconnected, nil},                            // 4.2
	{StateConfigSending, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                        // 4.4
	{StateConfigSending, evtReqAssocRel, StateDisassociating, actReleaseRequestNormalTx},               // 4.6
	{StateConfigSending, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                     // 4.7
	{StateConfigSending, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                            // 4.8
	{StateConfigSending, evtRxAare, StateUnassociated, actAbortUndefinedTx},                            // 4.12
	{StateConfigSending, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},                     // 4.16
	{StateConfigSending, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                            // 4.17
	{StateConfigSending, evtRxAbrt, StateUnassociated, nil},                                            // 4.18
	{StateConfigSending, evtRxRoivGet, StateConfigSending, actAgentRoivGetMdsTx},                       // 4.22
	{StateConfigSending, evtRxRoiv, StateConfigSending, actAgentRoerNoTx},                              // 4.23
	{StateConfigSending, evtRxRoivEventReport, StateConfigSending, actAgentRoerNoTx},                   // 4.23
	{StateConfigSending, evtRxRoivConfirmedEventReport, StateConfigSending, actAgentRoerNoTx},          // 4.23
	{StateConfigSending, evtRxRoivSet, StateConfigSending, actAgentRoerNoTx},                           // 4.23
	{StateConfigSending, evtRxRoivConfirmedSet, StateConfigSending, actAgentRoerNoTx},                  // 4.23
	{StateConfigSending, evtRxRoivAction, StateConfigSending, actAgentRoerNoTx},                        // 4.23
	{StateConfigSending, evtRxRoivConfirmedAction, StateConfigSending, actAgentRoerNoTx},               // 4.23
	{StateConfigSending, evtRxRors, StateUnassociated, actAbortUndefinedTx},                            // 4.26
	{StateConfigSending, evtRxRorsConfirmedEventReport, StateUnassociated, actAbortUndefinedTx},        // 4.26
	{StateConfigSending, evtRxRorsConfirmedEventReportUnknown, StateUnassociated, actAbortUndefinedTx}, // 4.26
	{StateConfigSending, evtRxRorsConfirmedEventReportKnown, StateUnassociated, actAbortUndefinedTx},   // 4.26
	{StateConfigSending, evtRxRorsGet, StateUnassociated, actAbortUndefinedTx},                         // 4.26
	{StateConfigSending, evtRxRorsConfirmedSet, StateUnassociated, actAbortUndefinedTx},                // 4.26
	{StateConfigSending, evtRxRorsConfirmedAction, StateUnassociated, actAbortUndefinedTx},             // 4.26
	{StateConfigSending, evtRxRoer, StateUnassociated, actAbortUndefinedTx},                            // 4.26
	{StateConfigSending, evtRxRorj, StateUnassociated, actAbortUndefinedTx},                            // 4.26
	{StateConfigSending, evtReqSendConfig, StateWaitingApproval, actSendConfigTx},                      // 4.32

	{StateWaitingApproval, evtIndTransportDisconnect, StateDisconnected, nil},                     // 5.2
	{StateWaitingApproval, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                 // 5.4
	{StateWaitingApproval, evtReqAssocRel, StateDisassociating, actReleaseRequestNormalTx},        // 5.6
	{StateWaitingApproval, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},              // 5.7
	{StateWaitingApproval, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                     // 5.8
	{StateWaitingApproval, evtRxAare, StateUnassociated, actAbortUndefinedTx},                     // 5.12
	{StateWaitingApproval, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},              // 5.16
	{StateWaitingApproval, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                     // 5.17
	{StateWaitingApproval, evtRxAbrt, StateUnassociated, nil},                                     // 5.18
	{StateWaitingApproval, evtRxRoivGet, StateConfigSending, actAgentRoivGetMdsTx},                // 5.22
	{StateWaitingApproval, evtRxRoiv, StateConfigSending, actAgentRoerNoTx},                       // 5.23
	{StateWaitingApproval, evtRxRoivEventReport, StateConfigSending, actAgentRoerNoTx},            // 5.23
	{StateWaitingApproval, evtRxRoivConfirmedEventReport, StateConfigSending, actAgentRoerNoTx},   // 5.23
	{StateWaitingApproval, evtRxRoivSet, StateConfigSending, actAgentRoerNoTx},                    // 5.23
	{StateWaitingApproval, evtRxRoivConfirmedSet, StateConfigSending, actAgentRoerNoTx},           // 5.23
	{StateWaitingApproval, evtRxRoivAction, StateConfigSending, actAgentRoerNoTx},                 // 5.23
	{StateWaitingApproval, evtRxRoivConfirmedAction, StateConfigSending, actAgentRoerNoTx},        // 5.23
	{StateWaitingApproval, evtRxRorsConfirmedEventReportUnknown, StateConfigSending, nil},         // 5.27
	{StateWaitingApproval, evtRxRorsConfirmedEventReportKnown, StateOperating, nil},               // 5.29
	{StateWaitingApproval, evtRxRors, StateUnassociated, actAbortUndefinedTx},                     // 5.30
	{StateWaitingApproval, evtRxRorsConfirmedEventReport, StateUnassociated, actAbortUndefinedTx}, // 5.30
	{StateWaitingApproval, evtRxRorsGet, StateUnassociated, actAbortUndefinedTx},                  // 5.30
	{StateWaitingApproval, evtRxRorsConfirmedSet, StateUnassociated, actAbortUndefinedTx},         // 5.30
	{StateWaitingApproval, evtRxRorsConfirmedAction, StateUnassociated, actAbortUndefinedTx},      // 5.30
	{StateWaitingApproval, evtRxRoer, StateUnassociated, actAbortUndefinedTx},                     // 5.30
	{StateWaitingApproval, evtRxRorj, StateUnassociated, actAbortUndefinedTx},                     // 5.30

	{StateOperating, evtIndTransportDisconnect, StateDisconnected, nil},                                        // 8.2
	{StateOperating, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                                    // 8.4
	{StateOperating, evtReqAssocRel, StateDisassociating, actReleaseRequestNormalTx},                           // 8.6
	{StateOperating, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                                 // 8.7
	{StateOperating, evtReqSendEvent, StateOperating, actAgentSendEventTx},                                     // 8.7
	{StateOperating, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                                        // 8.8
	{StateOperating, evtRxAare, StateUnassociated, actAbortUndefinedTx},                                        // 8.12
	{StateOperating, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},                                 // 8.16
	{StateOperating, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                                        // 8.17
	{StateOperating, evtRxAbrt, StateUnassociated, nil},                                                        // 8.18
	{StateOperating, evtRxRoiv, StateOperating, actAgentRoivRespondTx},                                         // 8.21
	{StateOperating, evtRxRoivConfirmedEventReport, StateOperating, actAgentRoivConfirmedEventReportRespondTx}, // 8.21
	{StateOperating, evtRxRoivGet, StateOperating, actAgentRoivGetMdsTx},                                       // 8.21
	{StateOperating, evtRxRoivSet, StateOperating, actAgentRoivSetRespondTx},                                   // 8.21
	{StateOperating, evtRxRoivConfirmedSet, StateOperating, actAgentRoivConfirmedSetRespondTx},                 // 8.21
	{StateOperating, evtRxRoivConfirmedAction, StateOperating, actAgentRoivConfirmedActionRespondTx},           // 8.21
	{StateOperating, evtRxRoivAction, StateOperating, actAgentRoivActionRespondTx},                             // 8.21
	{StateOperating, evtRxRors, StateOperating, nil},                                                           // 8.26
	{StateOperating, evtRxRorsConfirmedEventReport, StateOperating, nil},                                       // 8.26
	{StateOperating, evtRxRorsConfirmedEventReportUnknown, StateOperating, nil},                                // 8.26
	{StateOperating, evtRxRorsConfirmedEventReportKnown, StateOperating, nil},                                  // 8.26
	{StateOperating, evtRxRorsGet, StateOperating, nil},                                                        // 8.26
	{StateOperating, evtRxRorsConfirmedSet, StateOperating, nil},                                               // 8.26
	{StateOperating, evtRxRorsConfirmedAction, StateOperating, nil},                                            // 8.26
	{StateOperating, evtRxRoer, StateOperating, nil},                                                           // 8.26
	{StateOperating, evtRxRorj, StateOperating, nil},                                                           // 8.26

	{StateDisassociating, evtIndTransportDisconnect, StateDisconnected, nil},                            // 9.2
	{StateDisassociating, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                        // 9.4
	{StateDisassociating, evtReqAssocRel, StateDisassociating, nil},                                     // 9.6
	{StateDisassociating, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                     // 9.7
	{StateDisassociating, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                            // 9.8
	{StateDisassociating, evtRxAare, StateUnassociated, actAbortUndefinedTx},                            // 9.12
	{StateDisassociating, evtRxRlrq, StateDisassociating, actReleaseResponseNormalTx},                   // 9.16
	{StateDisassociating, evtRxRlre, StateUnassociated, nil},                                            // 9.17
	{StateDisassociating, evtRxAbrt, StateUnassociated, nil},                                            // 9.18
	{StateDisassociating, evtRxRoiv, StateDisassociating, nil},                                          // 9.21
	{StateDisassociating, evtRxRors, StateUnassociated, actAbortUndefinedTx},                            // 9.26
	{StateDisassociating, evtRxRorsConfirmedEventReport, StateUnassociated, actAbortUndefinedTx},        // 9.26
	{StateDisassociating, evtRxRorsConfirmedEventReportUnknown, StateUnassociated, actAbortUndefinedTx}, // 9.26
	{StateDisassociating, evtRxRorsConfirmedEventReportKnown, StateUnassociated, actAbortUndefinedTx},   // 9.26
	{StateDisassociating, evtRxRorsGet, StateUnassociated, actAbortUndefinedTx},                         // 9.26
	{StateDisassociating, evtRxRorsConfirmedSet, StateUnassociated, actAbortUndefinedTx},                // 9.26
	{StateDisassociating, evtRxRorsConfirmedAction, StateUnassociated, actAbortUndefinedTx},             // 9.26
	{StateDisassociating, evtRxRoer, StateUnassociated, actAbortUndefinedTx},                            // 9.26
	{StateDisassociating, evtRxRorj, StateUnassociated, actAbortUndefinedTx},                            // 9.26
}

// managerStateTable is the IEEE 11073-20601 manager state table, including
// the erratum handling for responses received in WaitingForConfig (remark on
// page 147) and Disassociating (remark on page 150).
var managerStateTable = []transitionRule{
	{StateDisconnected, evtIndTransportConnection, StateUnassociated, nil}, // 1.1

	{StateUnassociated, evtIndTransportDisconnect, StateDisconnected, actDisconnectTx},                                               // 2.2
	{StateUnassociated, evtReqAssocRel, StateUnassociated, nil},                                                                      // 2.6
	{StateUnassociated, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                                                    // 2.7
	{StateUnassociated, evtRxAarqAcceptableAndKnownConfiguration, StateOperating, actAssocAcceptConfigTx},                            // 2.9
	{StateUnassociated, evtRxAarqAcceptableAndUnknownConfiguration, StateWaitingForConfig, actConfiguringTransitionWaitingForConfig}, // 2.10
	{StateUnassociated, evtRxAarqUnacceptableConfiguration, StateUnassociated, actAssocUnacceptConfigTx},                             // 2.11
	{StateUnassociated, evtRxAare, StateUnassociated, actAbortUndefinedTx},                                                           // 2.12
	{StateUnassociated, evtRxRlrq, StateUnassociated, actAbortUndefinedTx},                                                           // 2.16
	{StateUnassociated, evtRxRlre, StateUnassociated, nil},                                                                           // 2.17
	{StateUnassociated, evtRxAbrt, StateUnassociated, nil},                                                                           // 2.18
	{StateUnassociated, evtRxPrst, StateUnassociated, actAbortUndefinedTx},                                                           // 2.19

	{StateWaitingForConfig, evtIndTransportDisconnect, StateDisconnected, actDisconnectTx},                          // 6.2
	{StateWaitingForConfig, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                                  // 6.4
	{StateWaitingForConfig, evtReqAssocRel, StateDisassociating, actReleaseRequestNormalTx},                         // 6.6
	{StateWaitingForConfig, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                               // 6.7
	{StateWaitingForConfig, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                                      // 6.8
	{StateWaitingForConfig, evtRxAare, StateUnassociated, actAbortUndefinedTx},                                      // 6.12
	{StateWaitingForConfig, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},                               // 6.16
	{StateWaitingForConfig, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                                      // 6.17
	{StateWaitingForConfig, evtRxAbrt, StateUnassociated, nil},                                                      // 6.18
	{StateWaitingForConfig, evtRxRoivConfirmedEventReport, StateCheckingConfig, actConfiguringPerformConfiguration}, // 6.24
	{StateWaitingForConfig, evtRxRoivEventReport, StateWaitingForConfig, actManagerRoerNoTx},                        // 6.25
	{StateWaitingForConfig, evtRxRoivGet, StateWaitingForConfig, nil},                                               // 6.25
	{StateWaitingForConfig, evtRxRoivSet, StateWaitingForConfig, nil},                                               // 6.25
	{StateWaitingForConfig, evtRxRoivConfirmedSet, StateWaitingForConfig, nil},                                      // 6.25
	{StateWaitingForConfig, evtRxRoivAction, StateWaitingForConfig, nil},                                            // 6.25
	{StateWaitingForConfig, evtRxRoivConfirmedAction, StateWaitingForConfig, nil},                                   // 6.25
	{StateWaitingForConfig, evtRxRors, StateWaitingForConfig, actCheckInvokeIDAbortTx},                              // 6.26
	{StateWaitingForConfig, evtRxRoer, StateWaitingForConfig, actCheckInvokeIDAbortTx},                              // 6.26
	{StateWaitingForConfig, evtRxRorj, StateWaitingForConfig, actCheckInvokeIDAbortTx},                              // 6.26
	{StateWaitingForConfig, evtReqAgentSuppliedUnknownConfiguration, StateWaitingForConfig, nil},                    // transcoding
	{StateWaitingForConfig, evtReqAgentSuppliedKnownConfiguration, StateOperating, nil},                             // transcoding

	{StateCheckingConfig, evtIndTransportDisconnect, StateDisconnected, actDisconnectTx},                               // 7.2
	{StateCheckingConfig, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                                       // 7.4
	{StateCheckingConfig, evtReqAssocRel, StateDisassociating, actReleaseRequestNormalTx},                              // 7.6
	{StateCheckingConfig, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                                    // 7.7
	{StateCheckingConfig, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                                           // 7.8
	{StateCheckingConfig, evtRxAarqAcceptableAndKnownConfiguration, StateUnassociated, actAbortUndefinedTx},            // 7.8
	{StateCheckingConfig, evtRxAarqAcceptableAndUnknownConfiguration, StateUnassociated, actAbortUndefinedTx},          // 7.8
	{StateCheckingConfig, evtRxAarqUnacceptableConfiguration, StateUnassociated, actAbortUndefinedTx},                  // 7.8
	{StateCheckingConfig, evtRxAare, StateUnassociated, actAbortUndefinedTx},                                           // 7.12
	{StateCheckingConfig, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},                                    // 7.16
	{StateCheckingConfig, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                                           // 7.17
	{StateCheckingConfig, evtRxAbrt, StateUnassociated, nil},                                                           // 7.18
	{StateCheckingConfig, evtRxRoivConfirmedEventReport, StateCheckingConfig, actConfiguringNewMeasurementsResponseTx}, // 7.24
	{StateCheckingConfig, evtRxRoivAllExceptConfirmedEventReport, StateUnassociated, actManagerRoerNoTx},               // 7.25
	{StateCheckingConfig, evtRxRorsConfirmedEventReport, StateCheckingConfig, nil},                                     // 7.26
	{StateCheckingConfig, evtRxRorsGet, StateCheckingConfig, nil},                                                      // 7.26
	{StateCheckingConfig, evtRxRorsConfirmedSet, StateCheckingConfig, nil},                                             // 7.26
	{StateCheckingConfig, evtRxRorsConfirmedAction, StateCheckingConfig, nil},                                          // 7.26
	{StateCheckingConfig, evtRxRoer, StateCheckingConfig, nil},                                                         // 7.26
	{StateCheckingConfig, evtRxRorj, StateCheckingConfig, nil},                                                         // 7.26
	{StateCheckingConfig, evtReqAgentSuppliedUnknownConfiguration, StateWaitingForConfig, actConfiguringConfigurationResponseTx}, // 7.31
	{StateCheckingConfig, evtReqAgentSuppliedKnownConfiguration, StateOperating, actConfiguringConfigurationResponseTx},          // 7.32
	{StateCheckingConfig, evtReqAgentSuppliedBadConfiguration, StateWaitingForConfig, actConfiguringConfigurationRorjTx},         // 7.32

	{StateOperating, evtIndTransportDisconnect, StateDisconnected, nil},                                   // 8.2
	{StateOperating, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},                               // 8.4
	{StateOperating, evtReqAssocRel, StateDisassociating, actOperatingAssocReleaseReqTx},                  // 8.6
	{StateOperating, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},                            // 8.7
	{StateOperating, evtRxAarq, StateUnassociated, actAbortUndefinedTx},                                   // 8.8
	{StateOperating, evtRxAare, StateUnassociated, actAbortUndefinedTx},                                   // 8.12
	{StateOperating, evtRxRlrq, StateUnassociated, actReleaseResponseNormalTx},                            // 8.16
	{StateOperating, evtRxRlre, StateUnassociated, actAbortUndefinedTx},                                   // 8.17
	{StateOperating, evtRxAbrt, StateUnassociated, nil},                                                   // 8.18
	{StateOperating, evtRxRoivConfirmedEventReport, StateOperating, actManagerEventReport},                // 8.21
	{StateOperating, evtRxRoivEventReport, StateOperating, actManagerEventReport},                         // 8.21
	{StateOperating, evtRxRoivAllExceptConfirmedEventReport, StateOperating, actManagerRoivNonEventReport}, // 8.21
	{StateOperating, evtRxRorsConfirmedEventReport, StateOperating, nil},                                  // 8.26
	{StateOperating, evtRxRorsGet, StateOperating, actManagerGetResponse},                                 // 8.26
	{StateOperating, evtRxRorsConfirmedSet, StateOperating, actManagerSetScannerResponse},                 // 8.26
	{StateOperating, evtRxRorsConfirmedAction, StateOperating, actManagerRorsConfirmedAction},             // 8.26
	{StateOperating, evtRxRoer, StateOperating, actManagerRoerReceived},                                   // 8.26
	{StateOperating, evtRxRorj, StateOperating, actManagerRorjReceived},                                   // 8.26

	{StateDisassociating, evtIndTransportDisconnect, StateDisconnected, nil},          // 9.2
	{StateDisassociating, evtIndTimeout, StateUnassociated, actAbortUndefinedTx},      // 9.4
	{StateDisassociating, evtReqAssocRel, StateDisassociating, nil},                   // 9.6
	{StateDisassociating, evtReqAssocAbort, StateUnassociated, actAbortUndefinedTx},   // 9.7
	{StateDisassociating, evtRxAarq, StateUnassociated, actAbortUndefinedTx},          // 9.8
	{StateDisassociating, evtRxAare, StateUnassociated, actAbortUndefinedTx},          // 9.12
	{StateDisassociating, evtRxRlrq, StateDisassociating, actReleaseResponseNormalTx}, // 9.16
	{StateDisassociating, evtRxRlre, StateUnassociated, actReleaseProcessCompleted},   // 9.17
	{StateDisassociating, evtRxAbrt, StateUnassociated, nil},                          // 9.18
	{StateDisassociating, evtRxRoiv, StateDisassociating, nil},                        // 9.21
	{StateDisassociating, evtRxRors, StateUnassociated, actAbortUndefinedTx},          // 9.26
	{StateDisassociating, evtRxRoer, StateUnassociated, actAbortUndefinedTx},          // 9.26
	{StateDisassociating, evtRxRorj, StateUnassociated, actAbortUndefinedTx},          // 9.26
}

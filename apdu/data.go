package apdu

// The DATA-apdu carried inside a PRST: an invoke id plus one CMIP remote
// operation message (20601 A.10).

import (
	"fmt"

	"github.com/grailbio/go-dicom/dicomio"
)

// Message choice tags for the DATA-apdu union.
const (
	ChoiceRoivEventReport          uint16 = 0x0100
	ChoiceRoivConfirmedEventReport uint16 = 0x0101
	ChoiceRoivGet                  uint16 = 0x0103
	ChoiceRoivSet                  uint16 = 0x0104
	ChoiceRoivConfirmedSet         uint16 = 0x0105
	ChoiceRoivAction               uint16 = 0x0106
	ChoiceRoivConfirmedAction      uint16 = 0x0107
	ChoiceRorsConfirmedEventReport uint16 = 0x0201
	ChoiceRorsGet                  uint16 = 0x0203
	ChoiceRorsConfirmedSet         uint16 = 0x0205
	ChoiceRorsConfirmedAction      uint16 = 0x0207
	ChoiceRoer                     uint16 = 0x0300
	ChoiceRorj                     uint16 = 0x0400
)

// Message is one CMIP remote operation.
type Message interface {
	MessageChoice() uint16
	writeTo(*dicomio.Encoder)
	String() string
}

// IsRoiv reports whether m is a remote operation invoke.
func IsRoiv(m Message) bool { return m.MessageChoice()&0xff00 == 0x0100 }

// IsRors reports whether m is a remote operation result.
func IsRors(m Message) bool { return m.MessageChoice()&0xff00 == 0x0200 }

// IsRoer reports whether m is a remote operation error.
func IsRoer(m Message) bool { return m.MessageChoice() == ChoiceRoer }

// IsRorj reports whether m is a remote operation reject.
func IsRorj(m Message) bool { return m.MessageChoice() == ChoiceRorj }

// DataApdu pairs an invoke id with a message.
type DataApdu struct {
	InvokeID InvokeID
	Message  Message
}

func (v *DataApdu) write(e *dicomio.Encoder) {
	if v.Message == nil {
		e.SetError(fmt.Errorf("apdu: DATA-apdu without message"))
		return
	}
	body, err := encodeToBytes(v.Message.writeTo)
	if err != nil {
		e.SetError(err)
		return
	}
	e.WriteUInt16(v.InvokeID)
	e.WriteUInt16(v.Message.MessageChoice())
	e.WriteUInt16(uint16(len(body)))
	e.WriteBytes(body)
}

func readDataApdu(d *dicomio.Decoder) DataApdu {
	v := DataApdu{}
	v.InvokeID = d.ReadUInt16()
	choice := d.ReadUInt16()
	length := d.ReadUInt16()
	d.PushLimit(int64(length))
	defer d.PopLimit()
	switch choice {
	case ChoiceRoivEventReport:
		v.Message = &RoivEventReport{readEventReport(d)}
	case ChoiceRoivConfirmedEventReport:
		v.Message = &RoivConfirmedEventReport{readEventReport(d)}
	case ChoiceRoivGet:
		v.Message = &RoivGet{readGetArgument(d)}
	case ChoiceRoivSet:
		v.Message = &RoivSet{readSetArgument(d)}
	case ChoiceRoivConfirmedSet:
		v.Message = &RoivConfirmedSet{readSetArgument(d)}
	case ChoiceRoivAction:
		v.Message = &RoivAction{readActionArgument(d)}
	case ChoiceRoivConfirmedAction:
		v.Message = &RoivConfirmedAction{readActionArgument(d)}
	case ChoiceRorsConfirmedEventReport:
		v.Message = &RorsConfirmedEventReport{readEventReportResult(d)}
	case ChoiceRorsGet:
		v.Message = &RorsGet{readGetResult(d)}
	case ChoiceRorsConfirmedSet:
		v.Message = &RorsConfirmedSet{readSetResult(d)}
	case ChoiceRorsConfirmedAction:
		v.Message = &RorsConfirmedAction{readActionResult(d)}
	case ChoiceRoer:
		v.Message = &Roer{readErrorResult(d)}
	case ChoiceRorj:
		v.Message = &Rorj{readRejectResult(d)}
	default:
		d.SetError(fmt.Errorf("apdu: unknown DATA-apdu choice 0x%04x", choice))
	}
	return v
}

func (v *DataApdu) String() string {
	if v.Message == nil {
		return fmt.Sprintf("data{invoke:%d <nil>}", v.InvokeID)
	}
	return fmt.Sprintf("data{invoke:%d %s}", v.InvokeID, v.Message.String())
}

// EventReport is EventReportArgumentSimple (20601 A.10).
type EventReport struct {
	ObjHandle Handle
	EventTime RelativeTime
	EventType OIDType
	EventInfo []byte
}

func (v *EventReport) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	e.WriteUInt32(v.EventTime)
	e.WriteUInt16(v.EventType)
	writeAny(e, v.EventInfo)
}

func readEventReport(d *dicomio.Decoder) EventReport {
	return EventReport{
		ObjHandle: d.ReadUInt16(),
		EventTime: d.ReadUInt32(),
		EventType: d.ReadUInt16(),
		EventInfo: readAny(d),
	}
}

func (v *EventReport) String() string {
	return fmt.Sprintf("evtrep{handle:%d type:%d info:%dbytes}", v.ObjHandle, v.EventType, len(v.EventInfo))
}

// EventReportResult is EventReportResultSimple.
type EventReportResult struct {
	ObjHandle      Handle
	CurrentTime    RelativeTime
	EventType      OIDType
	EventReplyInfo []byte
}

func (v *EventReportResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	e.WriteUInt32(v.CurrentTime)
	e.WriteUInt16(v.EventType)
	writeAny(e, v.EventReplyInfo)
}

func readEventReportResult(d *dicomio.Decoder) EventReportResult {
	return EventReportResult{
		ObjHandle:      d.ReadUInt16(),
		CurrentTime:    d.ReadUInt32(),
		EventType:      d.ReadUInt16(),
		EventReplyInfo: readAny(d),
	}
}

func (v *EventReportResult) String() string {
	return fmt.Sprintf("evtrsp{handle:%d type:%d reply:%dbytes}", v.ObjHandle, v.EventType, len(v.EventReplyInfo))
}

// GetArgument is GetArgumentSimple. An empty AttributeIDList requests all
// attributes.
type GetArgument struct {
	ObjHandle       Handle
	AttributeIDList AttributeIDList
}

func (v *GetArgument) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	v.AttributeIDList.write(e)
}

func readGetArgument(d *dicomio.Decoder) GetArgument {
	return GetArgument{
		ObjHandle:       d.ReadUInt16(),
		AttributeIDList: readAttributeIDList(d),
	}
}

func (v *GetArgument) String() string {
	return fmt.Sprintf("get{handle:%d ids:%d}", v.ObjHandle, len(v.AttributeIDList.List))
}

// GetResult is GetResultSimple.
type GetResult struct {
	ObjHandle     Handle
	AttributeList AttributeList
}

func (v *GetResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	v.AttributeList.write(e)
}

func readGetResult(d *dicomio.Decoder) GetResult {
	return GetResult{
		ObjHandle:     d.ReadUInt16(),
		AttributeList: readAttributeList(d),
	}
}

func (v *GetResult) String() string {
	return fmt.Sprintf("getrsp{handle:%d attrs:%s}", v.ObjHandle, v.AttributeList.String())
}

// SetArgument is SetArgumentSimple.
type SetArgument struct {
	ObjHandle     Handle
	Modifications []AttributeModEntry
}

func (v *SetArgument) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	writeList(e, len(v.Modifications), func(sub *dicomio.Encoder) {
		for i := range v.Modifications {
			v.Modifications[i].write(sub)
		}
	})
}

func readSetArgument(d *dicomio.Decoder) SetArgument {
	v := SetArgument{ObjHandle: d.ReadUInt16()}
	readList(d, func(d *dicomio.Decoder) {
		v.Modifications = append(v.Modifications, readAttributeModEntry(d))
	})
	return v
}

func (v *SetArgument) String() string {
	return fmt.Sprintf("set{handle:%d mods:%d}", v.ObjHandle, len(v.Modifications))
}

// SetResult is SetResultSimple.
type SetResult struct {
	ObjHandle     Handle
	AttributeList AttributeList
}

func (v *SetResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	v.AttributeList.write(e)
}

func readSetResult(d *dicomio.Decoder) SetResult {
	return SetResult{
		ObjHandle:     d.ReadUInt16(),
		AttributeList: readAttributeList(d),
	}
}

func (v *SetResult) String() string {
	return fmt.Sprintf("setrsp{handle:%d attrs:%s}", v.ObjHandle, v.AttributeList.String())
}

// ActionArgument is ActionArgumentSimple.
type ActionArgument struct {
	ObjHandle      Handle
	ActionType     OIDType
	ActionInfoArgs []byte
}

func (v *ActionArgument) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	e.WriteUInt16(v.ActionType)
	writeAny(e, v.ActionInfoArgs)
}

func readActionArgument(d *dicomio.Decoder) ActionArgument {
	return ActionArgument{
		ObjHandle:      d.ReadUInt16(),
		ActionType:     d.ReadUInt16(),
		ActionInfoArgs: readAny(d),
	}
}

func (v *ActionArgument) String() string {
	return fmt.Sprintf("action{handle:%d type:%d args:%dbytes}", v.ObjHandle, v.ActionType, len(v.ActionInfoArgs))
}

// ActionResult is TypeAndInfo, the confirmed action response.
type ActionResult struct {
	ObjHandle      Handle
	ActionType     OIDType
	ActionInfoArgs []byte
}

func (v *ActionResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ObjHandle)
	e.WriteUInt16(v.ActionType)
	writeAny(e, v.ActionInfoArgs)
}

func readActionResult(d *dicomio.Decoder) ActionResult {
	return ActionResult{
		ObjHandle:      d.ReadUInt16(),
		ActionType:     d.ReadUInt16(),
		ActionInfoArgs: readAny(d),
	}
}

func (v *ActionResult) String() string {
	return fmt.Sprintf("actionrsp{handle:%d type:%d args:%dbytes}", v.ObjHandle, v.ActionType, len(v.ActionInfoArgs))
}

// Error values for Roer (20601 A.10).
const (
	ErrNoSuchObjectInstance  uint16 = 1
	ErrAccessDenied          uint16 = 2
	ErrNoSuchAction          uint16 = 9
	ErrInvalidObjectInstance uint16 = 17
	ErrProtocolViolation     uint16 = 23
	ErrNotAllowedByObject    uint16 = 24
	ErrActionTimedOut        uint16 = 25
	ErrActionAborted         uint16 = 26
)

// ErrorResult is the payload of a ROER.
type ErrorResult struct {
	ErrorValue uint16
	Parameter  []byte
}

func (v *ErrorResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.ErrorValue)
	writeAny(e, v.Parameter)
}

func readErrorResult(d *dicomio.Decoder) ErrorResult {
	return ErrorResult{
		ErrorValue: d.ReadUInt16(),
		Parameter:  readAny(d),
	}
}

func (v *ErrorResult) String() string {
	return fmt.Sprintf("roer{value:%d}", v.ErrorValue)
}

// Reject problems for Rorj.
const (
	ProblemUnrecognizedAPDU      uint16 = 0
	ProblemBadlyStructuredAPDU   uint16 = 2
	ProblemUnrecognizedOperation uint16 = 101
	ProblemResourceLimitation    uint16 = 103
	ProblemUnexpectedError       uint16 = 303
)

// RejectResult is the payload of a RORJ.
type RejectResult struct {
	Problem uint16
}

func (v *RejectResult) write(e *dicomio.Encoder) {
	e.WriteUInt16(v.Problem)
}

func readRejectResult(d *dicomio.Decoder) RejectResult {
	return RejectResult{Problem: d.ReadUInt16()}
}

func (v *RejectResult) String() string {
	return fmt.Sprintf("rorj{problem:%d}", v.Problem)
}

// The concrete message types pair a choice tag with the shared argument and
// result shapes above.

type RoivEventReport struct{ EventReport }

func (v *RoivEventReport) MessageChoice() uint16 { return ChoiceRoivEventReport }
func (v *RoivEventReport) writeTo(e *dicomio.Encoder) { v.EventReport.write(e) }
func (v *RoivEventReport) String() string { return "roiv-" + v.EventReport.String() }

type RoivConfirmedEventReport struct{ EventReport }

func (v *RoivConfirmedEventReport) MessageChoice() uint16 { return ChoiceRoivConfirmedEventReport }
func (v *RoivConfirmedEventReport) writeTo(e *dicomio.Encoder) { v.EventReport.write(e) }
func (v *RoivConfirmedEventReport) String() string { return "roiv-c-" + v.EventReport.String() }

type RoivGet struct{ GetArgument }

func (v *RoivGet) MessageChoice() uint16 { return ChoiceRoivGet }
func (v *RoivGet) writeTo(e *dicomio.Encoder) { v.GetArgument.write(e) }
func (v *RoivGet) String() string { return "roiv-" + v.GetArgument.String() }

type RoivSet struct{ SetArgument }

func (v *RoivSet) MessageChoice() uint16 { return ChoiceRoivSet }
func (v *RoivSet) writeTo(e *dicomio.Encoder) { v.SetArgument.write(e) }
func (v *RoivSet) String() string { return "roiv-" + v.SetArgument.String() }

type RoivConfirmedSet struct{ SetArgument }

func (v *RoivConfirmedSet) MessageChoice() uint16 { return ChoiceRoivConfirmedSet }
func (v *RoivConfirmedSet) writeTo(e *dicomio.Encoder) { v.SetArgument.write(e) }
func (v *RoivConfirmedSet) String() string { return "roiv-c-" + v.SetArgument.String() }

type RoivAction struct{ ActionArgument }

func (v *RoivAction) MessageChoice() uint16 { return ChoiceRoivAction }
func (v *RoivAction) writeTo(e *dicomio.Encoder) { v.ActionArgument.write(e) }
func (v *RoivAction) String() string { return "roiv-" + v.ActionArgument.String() }

type RoivConfirmedAction struct{ ActionArgument }

func (v *RoivConfirmedAction) MessageChoice() uint16 { return ChoiceRoivConfirmedAction }
func (v *RoivConfirmedAction) writeTo(e *dicomio.Encoder) { v.ActionArgument.write(e) }
func (v *RoivConfirmedAction) String() string { return "roiv-c-" + v.ActionArgument.String() }

type RorsConfirmedEventReport struct{ EventReportResult }

func (v *RorsConfirmedEventReport) MessageChoice() uint16 { return ChoiceRorsConfirmedEventReport }
func (v *RorsConfirmedEventReport) writeTo(e *dicomio.Encoder) { v.EventReportResult.write(e) }
func (v *RorsConfirmedEventReport) String() string { return "rors-c-" + v.EventReportResult.String() }

type RorsGet struct{ GetResult }

func (v *RorsGet) MessageChoice() uint16 { return ChoiceRorsGet }
func (v *RorsGet) writeTo(e *dicomio.Encoder) { v.GetResult.write(e) }
func (v *RorsGet) String() string { return "rors-" + v.GetResult.String() }

type RorsConfirmedSet struct{ SetResult }

func (v *RorsConfirmedSet) MessageChoice() uint16 { return ChoiceRorsConfirmedSet }
func (v *RorsConfirmedSet) writeTo(e *dicomio.Encoder) { v.SetResult.write(e) }
func (v *RorsConfirmedSet) String() string { return "rors-c-" + v.SetResult.String() }

type RorsConfirmedAction struct{ ActionResult }

func (v *RorsConfirmedAction) MessageChoice() uint16 { return ChoiceRorsConfirmedAction }
func (v *RorsConfirmedAction) writeTo(e *dicomio.Encoder) { v.ActionResult.write(e) }
func (v *RorsConfirmedAction) String() string { return "rors-c-" + v.ActionResult.String() }

type Roer struct{ ErrorResult }

func (v *Roer) MessageChoice() uint16 { return ChoiceRoer }
func (v *Roer) writeTo(e *dicomio.Encoder) { v.ErrorResult.write(e) }
func (v *Roer) String() string { return v.ErrorResult.String() }

type Rorj struct{ RejectResult }

func (v *Rorj) MessageChoice() uint16 { return ChoiceRorj }
func (v *Rorj) writeTo(e *dicomio.Encoder) { v.RejectResult.write(e) }
func (v *Rorj) String() string { return v.RejectResult.String() }

package apdu_test

import (
	"bytes"
	"testing"

	"github.com/giesekow/go-phd/apdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAPDU(t *testing.T, v apdu.APDU) {
	encoded, err := apdu.EncodeAPDU(v)
	require.NoError(t, err)
	v2, err := apdu.ReadAPDU(bytes.NewReader(encoded), apdu.AarqLength+1024)
	require.NoError(t, err)
	assert.Equal(t, v.String(), v2.String())
	// Re-encoding the decoded APDU must be byte-identical.
	encoded2, err := apdu.EncodeAPDU(v2)
	require.NoError(t, err)
	assert.Equal(t, encoded, encoded2)
}

func agentAssocInfo(t *testing.T) []byte {
	info := &apdu.PhdAssociationInformation{
		ProtocolVersion:     apdu.AssocVersion1,
		EncodingRules:       apdu.MDER,
		NomenclatureVersion: apdu.NomVersion1,
		SystemType:          apdu.SysTypeAgent,
		SystemID:            []byte{1, 2, 3, 4, 5, 6, 7, 8},
		DevConfigID:         0x0190,
		DataReqModeCapab: apdu.DataReqModeCapab{
			DataReqModeFlags:      apdu.DataReqSuppInitAgent,
			DataReqInitAgentCount: 1,
		},
	}
	encoded, err := apdu.EncodePhdAssociationInformation(info)
	require.NoError(t, err)
	return encoded
}

func TestAarq(t *testing.T) {
	encoded := agentAssocInfo(t)
	assert.Equal(t, apdu.AssocInfoLength, len(encoded))
	aarq := &apdu.Aarq{
		AssocVersion: apdu.AssocVersion1,
		DataProtoList: []apdu.DataProto{
			{ID: apdu.DataProtoID20601, Info: encoded},
		},
	}
	testAPDU(t, aarq)

	raw, err := apdu.EncodeAPDU(aarq)
	require.NoError(t, err)
	// Choice/length header plus the fixed AARQ payload length.
	assert.Equal(t, 4+apdu.AarqLength, len(raw))
}

func TestAare(t *testing.T) {
	info := &apdu.PhdAssociationInformation{
		ProtocolVersion:     apdu.AssocVersion1,
		EncodingRules:       apdu.MDER,
		NomenclatureVersion: apdu.NomVersion1,
		SystemType:          apdu.SysTypeManager,
		SystemID:            []byte{8, 7, 6, 5, 4, 3, 2, 1},
		DevConfigID:         apdu.ManagerConfigResponse,
	}
	encoded, err := apdu.EncodePhdAssociationInformation(info)
	require.NoError(t, err)
	aare := &apdu.Aare{
		Result:   apdu.Accepted,
		Selected: apdu.DataProto{ID: apdu.DataProtoID20601, Info: encoded},
	}
	testAPDU(t, aare)

	raw, err := apdu.EncodeAPDU(aare)
	require.NoError(t, err)
	assert.Equal(t, 4+apdu.AareLength, len(raw))
}

func TestReleaseAndAbort(t *testing.T) {
	testAPDU(t, &apdu.Rlrq{Reason: apdu.ReleaseRequestReasonNormal})
	testAPDU(t, &apdu.Rlre{Reason: apdu.ReleaseResponseReasonNormal})
	testAPDU(t, &apdu.Abrt{Reason: apdu.AbortReasonUndefined})
}

func TestPrstRoundTrips(t *testing.T) {
	messages := []apdu.Message{
		&apdu.RoivGet{GetArgument: apdu.GetArgument{ObjHandle: 0}},
		&apdu.RoivGet{GetArgument: apdu.GetArgument{
			ObjHandle:       0,
			AttributeIDList: apdu.AttributeIDList{List: []apdu.OIDType{2436, 2628}},
		}},
		&apdu.RoivConfirmedSet{SetArgument: apdu.SetArgument{
			ObjHandle: 7,
			Modifications: []apdu.AttributeModEntry{{
				ModifyOperator: apdu.ReplaceValue,
				Attribute:      apdu.AVAType{AttributeID: 2388, Value: []byte{0, 0}},
			}},
		}},
		&apdu.RoivConfirmedAction{ActionArgument: apdu.ActionArgument{
			ObjHandle:      0,
			ActionType:     3095,
			ActionInfoArgs: []byte{0x20, 0x26, 0x08, 0x01, 0x12, 0x00, 0x00, 0x00, 0, 0, 0, 0},
		}},
		&apdu.RoivConfirmedEventReport{EventReport: apdu.EventReport{
			ObjHandle: 0,
			EventTime: 0xFFFFFFFF,
			EventType: 3356,
			EventInfo: []byte{1, 2, 3, 4},
		}},
		&apdu.RorsConfirmedEventReport{EventReportResult: apdu.EventReportResult{
			ObjHandle:   0,
			CurrentTime: 0xFFFFFFFF,
			EventType:   3356,
		}},
		&apdu.RorsGet{GetResult: apdu.GetResult{
			ObjHandle: 0,
			AttributeList: apdu.AttributeList{List: []apdu.AVAType{
				{AttributeID: 2436, Value: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
			}},
		}},
		&apdu.RorsConfirmedSet{SetResult: apdu.SetResult{ObjHandle: 7}},
		&apdu.RorsConfirmedAction{ActionResult: apdu.ActionResult{ObjHandle: 1, ActionType: 3085}},
		&apdu.Roer{ErrorResult: apdu.ErrorResult{ErrorValue: apdu.ErrNoSuchAction}},
		&apdu.Rorj{RejectResult: apdu.RejectResult{Problem: apdu.ProblemBadlyStructuredAPDU}},
	}
	for i, msg := range messages {
		testAPDU(t, &apdu.Prst{Data: apdu.DataApdu{InvokeID: uint16(i + 1), Message: msg}})
	}
}

func TestPrstInvokeIDSurvives(t *testing.T) {
	p := &apdu.Prst{Data: apdu.DataApdu{
		InvokeID: 0xBEEF,
		Message:  &apdu.Roer{ErrorResult: apdu.ErrorResult{ErrorValue: 9}},
	}}
	encoded, err := apdu.EncodeAPDU(p)
	require.NoError(t, err)
	v, err := apdu.ReadAPDU(bytes.NewReader(encoded), 1024)
	require.NoError(t, err)
	p2, ok := v.(*apdu.Prst)
	require.True(t, ok)
	assert.Equal(t, uint16(0xBEEF), p2.Data.InvokeID)
	assert.True(t, apdu.IsRoer(p2.Data.Message))
}

func TestConfigReportRoundTrip(t *testing.T) {
	report := &apdu.ConfigReport{
		ConfigReportID: 0x4001,
		ConfigObjList: apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
			{
				ObjClass:  6,
				ObjHandle: 1,
				Attributes: apdu.AttributeList{List: []apdu.AVAType{
					{AttributeID: 2351, Value: []byte{0x4B, 0xB8}},
				}},
			},
			{ObjClass: 16, ObjHandle: 5},
		}},
	}
	encoded, err := apdu.EncodeConfigReport(report)
	require.NoError(t, err)
	report2, err := apdu.DecodeConfigReport(encoded)
	require.NoError(t, err)
	assert.Equal(t, report.String(), report2.String())
	assert.Equal(t, report.ConfigObjList.Objects[0].Attributes.Lookup(2351),
		report2.ConfigObjList.Objects[0].Attributes.Lookup(2351))
}

func TestConfigReportRspRoundTrip(t *testing.T) {
	rsp := &apdu.ConfigReportRsp{ConfigReportID: 0x4001, ConfigResult: apdu.AcceptedConfig}
	encoded, err := apdu.EncodeConfigReportRsp(rsp)
	require.NoError(t, err)
	rsp2, err := apdu.DecodeConfigReportRsp(encoded)
	require.NoError(t, err)
	assert.Equal(t, *rsp, *rsp2)
}

func TestScanReportRoundTrips(t *testing.T) {
	fixed := &apdu.ScanReportInfoFixed{
		DataReqID:    apdu.DataReqIDAgentInitiated,
		ScanReportNo: 3,
		ObsScanFixed: []apdu.ObservationScanFixed{
			{ObjHandle: 1, ObsValData: []byte{0x00, 0x62}},
			{ObjHandle: 10, ObsValData: []byte{0x00, 0x48}},
		},
	}
	encoded, err := apdu.EncodeScanReportInfoFixed(fixed)
	require.NoError(t, err)
	fixed2, err := apdu.DecodeScanReportInfoFixed(encoded)
	require.NoError(t, err)
	assert.Equal(t, fixed, fixed2)

	varRep := &apdu.ScanReportInfoVar{
		ScanReportNo: 4,
		ObsScanVar: []apdu.ObservationScan{{
			ObjHandle: 1,
			Attributes: apdu.AttributeList{List: []apdu.AVAType{
				{AttributeID: 2384, Value: []byte{0xFF, 0x00, 0x00, 0x62}},
			}},
		}},
	}
	encodedVar, err := apdu.EncodeScanReportInfoVar(varRep)
	require.NoError(t, err)
	varRep2, err := apdu.DecodeScanReportInfoVar(encodedVar)
	require.NoError(t, err)
	assert.Equal(t, varRep, varRep2)

	grouped := &apdu.ScanReportInfoGrouped{
		ScanReportNo:   5,
		ObsScanGrouped: [][]byte{{1, 2}, {3, 4, 5}},
	}
	encodedGrouped, err := apdu.EncodeScanReportInfoGrouped(grouped)
	require.NoError(t, err)
	grouped2, err := apdu.DecodeScanReportInfoGrouped(encodedGrouped)
	require.NoError(t, err)
	assert.Equal(t, grouped, grouped2)

	mp := &apdu.ScanReportInfoMPFixed{
		ScanReportNo: 6,
		ScanPerFixed: []apdu.ScanReportPerFixed{{
			PersonID:     2,
			ObsScanFixed: []apdu.ObservationScanFixed{{ObjHandle: 1, ObsValData: []byte{9}}},
		}},
	}
	encodedMP, err := apdu.EncodeScanReportInfoMPFixed(mp)
	require.NoError(t, err)
	mp2, err := apdu.DecodeScanReportInfoMPFixed(encodedMP)
	require.NoError(t, err)
	assert.Equal(t, mp, mp2)
}

func TestSegmentRoundTrips(t *testing.T) {
	evt := &apdu.SegmentDataEvent{
		SegmDataEventDescr: apdu.SegmentDataEventDescr{
			SegmInstance:      1,
			SegmEvtEntryIndex: 0,
			SegmEvtEntryCount: 2,
			SegmEvtStatus:     apdu.SevtstaFirstEntry | apdu.SevtstaLastEntry,
		},
		SegmDataEventEntries: []byte{1, 2, 3, 4, 5, 6},
	}
	encoded, err := apdu.EncodeSegmentDataEvent(evt)
	require.NoError(t, err)
	evt2, err := apdu.DecodeSegmentDataEvent(encoded)
	require.NoError(t, err)
	assert.Equal(t, evt, evt2)

	result := &apdu.SegmentDataResult{SegmDataEventDescr: evt.SegmDataEventDescr}
	result.SegmDataEventDescr.SegmEvtStatus |= apdu.SevtstaManagerConfirm
	encodedResult, err := apdu.EncodeSegmentDataResult(result)
	require.NoError(t, err)
	result2, err := apdu.DecodeSegmentDataResult(encodedResult)
	require.NoError(t, err)
	assert.Equal(t, result, result2)

	list := &apdu.SegmentInfoList{Segments: []apdu.SegmentInfo{
		{SegInstNo: 1, SegInfo: apdu.AttributeList{List: []apdu.AVAType{
			{AttributeID: 2337, Value: []byte{0, 9}},
		}}},
	}}
	encodedList, err := apdu.EncodeSegmentInfoList(list)
	require.NoError(t, err)
	list2, err := apdu.DecodeSegmentInfoList(encodedList)
	require.NoError(t, err)
	assert.Equal(t, list, list2)

	rsp := &apdu.TrigSegmDataXferRsp{SegInstNo: 1, TrigSegmXferRsp: apdu.TsxrSuccessful}
	encodedRsp, err := apdu.EncodeTrigSegmDataXferRsp(rsp)
	require.NoError(t, err)
	rsp2, err := apdu.DecodeTrigSegmDataXferRsp(encodedRsp)
	require.NoError(t, err)
	assert.Equal(t, rsp, rsp2)
}

func TestSetTimeRoundTrip(t *testing.T) {
	st := &apdu.SetTimeInvoke{
		DateTime: apdu.AbsoluteTime{Century: 0x20, Year: 0x26, Month: 0x08, Day: 0x01, Hour: 0x12},
		Accuracy: 0x00000064,
	}
	encoded, err := apdu.EncodeSetTimeInvoke(st)
	require.NoError(t, err)
	st2, err := apdu.DecodeSetTimeInvoke(encoded)
	require.NoError(t, err)
	assert.Equal(t, st, st2)
}

func TestDataResponseRoundTrip(t *testing.T) {
	rsp := &apdu.DataResponse{
		RelTimeStamp:  100,
		DataReqResult: apdu.DataReqResultNoError,
		EventType:     3357,
		EventInfo:     []byte{1, 2, 3},
	}
	encoded, err := apdu.EncodeDataResponse(rsp)
	require.NoError(t, err)
	rsp2, err := apdu.DecodeDataResponse(encoded)
	require.NoError(t, err)
	assert.Equal(t, rsp, rsp2)
}

func TestReadAPDURejectsOversizedFrames(t *testing.T) {
	raw := []byte{0xE7, 0x00, 0xFF, 0xFF}
	_, err := apdu.ReadAPDU(bytes.NewReader(raw), 1024)
	assert.Error(t, err)
}

func TestDecodeAPDUUnknownChoice(t *testing.T) {
	_, err := apdu.DecodeAPDU(0x1234, nil)
	assert.Error(t, err)
}

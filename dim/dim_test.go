package dim_test

import (
	"testing"

	"github.com/giesekow/go-phd/apdu"
	"github.com/giesekow/go-phd/dim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCatalogKnownAndLearn(t *testing.T) {
	c := dim.NewConfigCatalog()
	assert.True(t, c.Known(dim.StdConfigPulseOximeter))
	assert.True(t, c.Known(dim.StdConfigWeighingScale))
	assert.False(t, c.Known(0x4001))
	assert.Nil(t, c.Lookup(dim.StdConfigPulseOximeter))

	cfg := &apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
		{ObjClass: dim.MdcMocVmoMetricNu, ObjHandle: 1},
	}}
	c.Learn(0x4001, cfg)
	assert.True(t, c.Known(0x4001))
	assert.Equal(t, cfg, c.Lookup(0x4001))
}

func TestStdConfigObjectLists(t *testing.T) {
	for _, id := range []uint16{
		dim.StdConfigPulseOximeter, dim.StdConfigBloodPressure,
		dim.StdConfigThermometer, dim.StdConfigWeighingScale,
		dim.StdConfigGlucoseMeter,
	} {
		cfg := dim.StdConfigObjectList(id)
		require.NotNil(t, cfg, "config 0x%04x", id)
		assert.NotEmpty(t, cfg.Objects)
	}
	assert.Nil(t, dim.StdConfigObjectList(0x4001))
}

func TestMDSConfigureFrom(t *testing.T) {
	m := dim.NewMDS([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0x4001)
	m.ConfigureFrom(&apdu.ConfigObjectList{Objects: []apdu.ConfigObject{
		{ObjClass: dim.MdcMocVmoMetricNu, ObjHandle: 1},
		{ObjClass: dim.MdcMocScanCfgEpi, ObjHandle: 5},
		{ObjClass: dim.MdcMocScanCfgPeri, ObjHandle: 6},
		{ObjClass: dim.MdcMocVmsPmstoreSimple, ObjHandle: 9},
	}})

	assert.Nil(t, m.GetObjectByHandle(1)) // metrics carry no behavior
	epi := m.GetObjectByHandle(5)
	require.NotNil(t, epi)
	require.NotNil(t, epi.Scanner)
	assert.False(t, epi.Scanner.Periodic)
	peri := m.GetObjectByHandle(6)
	require.NotNil(t, peri)
	assert.True(t, peri.Scanner.Periodic)
	store := m.GetObjectByHandle(9)
	require.NotNil(t, store)
	assert.NotNil(t, store.PMStore)
}

func TestMDSAttributes(t *testing.T) {
	m := dim.NewMDS([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0x0190)
	all := m.Attributes(nil)
	assert.NotNil(t, all.Lookup(dim.MdcAttrSysId))
	assert.NotNil(t, all.Lookup(dim.MdcAttrDevConfigId))

	m.SetAttribute(apdu.AVAType{AttributeID: dim.MdcAttrTimeStampAbs, Value: []byte{1}})
	one := m.Attributes([]apdu.OIDType{dim.MdcAttrTimeStampAbs})
	require.Len(t, one.List, 1)
	assert.Equal(t, []byte{1}, one.List[0].Value)

	// Replacing keeps a single entry.
	m.SetAttribute(apdu.AVAType{AttributeID: dim.MdcAttrTimeStampAbs, Value: []byte{2}})
	one = m.Attributes([]apdu.OIDType{dim.MdcAttrTimeStampAbs})
	require.Len(t, one.List, 1)
	assert.Equal(t, []byte{2}, one.List[0].Value)
}

func TestMDSDecodeEventFeedsObservations(t *testing.T) {
	m := dim.NewMDS([]byte{1}, 0)
	var handles []apdu.Handle
	m.OnObservation = func(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte) {
		handles = append(handles, handle)
	}

	info, err := apdu.EncodeScanReportInfoFixed(&apdu.ScanReportInfoFixed{
		ScanReportNo: 1,
		ObsScanFixed: []apdu.ObservationScanFixed{
			{ObjHandle: 1, ObsValData: []byte{0x00, 0x62}},
			{ObjHandle: 10, ObsValData: []byte{0x00, 0x48}},
		},
	})
	require.NoError(t, err)
	assert.True(t, m.DecodeMDSEvent(dim.MdcNotiScanReportFixed, info))
	assert.Equal(t, []apdu.Handle{1, 10}, handles)

	assert.False(t, m.DecodeMDSEvent(dim.MdcNotiSegmentData, nil))
	assert.False(t, m.DecodeMDSEvent(dim.MdcNotiScanReportFixed, []byte{0xFF}))
}

func TestScannerDecodeScanEvent(t *testing.T) {
	m := dim.NewMDS([]byte{1}, 0)
	var handles []apdu.Handle
	m.OnObservation = func(personID uint16, handle apdu.Handle, attrs apdu.AttributeList, raw []byte) {
		handles = append(handles, handle)
	}
	epi := &dim.Scanner{Handle: 5}
	m.AddScanner(epi)

	info, err := apdu.EncodeScanReportInfoVar(&apdu.ScanReportInfoVar{
		ScanReportNo: 1,
		ObsScanVar: []apdu.ObservationScan{{
			ObjHandle: 1,
			Attributes: apdu.AttributeList{List: []apdu.AVAType{
				{AttributeID: dim.MdcAttrNuValObs, Value: []byte{0, 0, 0, 0x62}},
			}},
		}},
	})
	require.NoError(t, err)

	// An episodic scanner only accepts unbuffered report types.
	epi.DecodeScanEvent(m, dim.MdcNotiBufScanReportVar, info)
	assert.Empty(t, handles)
	epi.DecodeScanEvent(m, dim.MdcNotiUnbufScanReportVar, info)
	assert.Equal(t, []apdu.Handle{1}, handles)
}

func TestPMStoreSegmentDataEvent(t *testing.T) {
	p := dim.NewPMStore(9)

	first := &apdu.SegmentDataEvent{
		SegmDataEventDescr: apdu.SegmentDataEventDescr{
			SegmInstance:      1,
			SegmEvtEntryIndex: 0,
			SegmEvtEntryCount: 2,
			SegmEvtStatus:     apdu.SevtstaFirstEntry,
		},
		SegmDataEventEntries: []byte{1, 2},
	}
	assert.True(t, p.SegmentDataEvent(first))

	second := &apdu.SegmentDataEvent{
		SegmDataEventDescr: apdu.SegmentDataEventDescr{
			SegmInstance:      1,
			SegmEvtEntryIndex: 2,
			SegmEvtEntryCount: 1,
			SegmEvtStatus:     apdu.SevtstaLastEntry,
		},
		SegmDataEventEntries: []byte{3},
	}
	assert.True(t, p.SegmentDataEvent(second))

	seg := p.Segment(1)
	require.NotNil(t, seg)
	assert.Equal(t, []byte{1, 2, 3}, seg.Entries)
	assert.Equal(t, uint32(3), seg.EntryCount)

	// A chunk with the wrong entry index is refused.
	bad := &apdu.SegmentDataEvent{
		SegmDataEventDescr: apdu.SegmentDataEventDescr{
			SegmInstance:      1,
			SegmEvtEntryIndex: 7,
			SegmEvtEntryCount: 1,
		},
		SegmDataEventEntries: []byte{9},
	}
	assert.False(t, p.SegmentDataEvent(bad))
	assert.Equal(t, []byte{1, 2, 3}, p.Segment(1).Entries)
}

func TestPMStoreClearSegments(t *testing.T) {
	p := dim.NewPMStore(9)
	p.AddSegment(&dim.Segment{InstNo: 1, Entries: []byte{1}, EntryCount: 1})
	p.AddSegment(&dim.Segment{InstNo: 2, Entries: []byte{2}, EntryCount: 1})

	assert.True(t, p.ClearSegment(1))
	assert.Empty(t, p.Segment(1).Entries)
	assert.NotEmpty(t, p.Segment(2).Entries)
	assert.False(t, p.ClearSegment(7))

	// Instance 0 clears everything.
	p.ClearSegmentResult(0, dim.ResultOK, 0)
	assert.Empty(t, p.Segment(2).Entries)

	// Errors leave the store untouched.
	p.AddSegment(&dim.Segment{InstNo: 3, Entries: []byte{3}, EntryCount: 1})
	p.ClearSegmentResult(0, dim.ResultRoer, 9)
	assert.NotEmpty(t, p.Segment(3).Entries)
}

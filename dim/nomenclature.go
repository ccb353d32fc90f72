// Package dim implements the IEEE 11073 Domain Information Model objects the
// communication engine operates on: the MDS, configurable scanners, the
// PM-store and the configuration catalog.
package dim

// Nomenclature codes (IEEE 11073-10101) used by the communication model.
const (
	// Object classes.
	MdcMocVmsMdsSimple     uint16 = 37
	MdcMocVmoMetricNu      uint16 = 6
	MdcMocScanCfgEpi       uint16 = 15
	MdcMocScanCfgPeri      uint16 = 16
	MdcMocVmsPmstoreSimple uint16 = 61

	// Attributes.
	MdcAttrIdHandle        uint16 = 2337
	MdcAttrIdType          uint16 = 2351
	MdcAttrMetricSpecSmall uint16 = 2630
	MdcAttrOpStat          uint16 = 2388
	MdcAttrNuValObs        uint16 = 2384
	MdcAttrTimeStampAbs    uint16 = 2448
	MdcAttrSysId           uint16 = 2436
	MdcAttrDevConfigId     uint16 = 2628
	MdcAttrUnitCode        uint16 = 2454

	// Event types.
	MdcNotiConfig                   uint16 = 3356
	MdcNotiScanReportFixed          uint16 = 3357
	MdcNotiScanReportVar            uint16 = 3358
	MdcNotiScanReportMPFixed        uint16 = 3359
	MdcNotiScanReportMPVar          uint16 = 3360
	MdcNotiBufScanReportFixed       uint16 = 3361
	MdcNotiBufScanReportVar         uint16 = 3362
	MdcNotiBufScanReportGrouped     uint16 = 3363
	MdcNotiBufScanReportMPFixed     uint16 = 3364
	MdcNotiBufScanReportMPVar       uint16 = 3365
	MdcNotiBufScanReportMPGrouped   uint16 = 3366
	MdcNotiUnbufScanReportFixed     uint16 = 3367
	MdcNotiUnbufScanReportVar       uint16 = 3368
	MdcNotiUnbufScanReportGrouped   uint16 = 3369
	MdcNotiUnbufScanReportMPFixed   uint16 = 3370
	MdcNotiUnbufScanReportMPVar     uint16 = 3371
	MdcNotiUnbufScanReportMPGrouped uint16 = 3372
	MdcNotiSegmentData              uint16 = 3373

	// Actions.
	MdcActSegClr      uint16 = 3084
	MdcActSegGetInfo  uint16 = 3085
	MdcActSetTime     uint16 = 3095
	MdcActDataRequest uint16 = 3099
	MdcActSegTrigXfer uint16 = 3100
)

// Scanner operational states (20601 A.11.4).
const (
	OpStateDisabled     uint16 = 0
	OpStateEnabled      uint16 = 1
	OpStateNotAvailable uint16 = 2
)

package att

// Opcodes for the PDUs this core parses and emits (BLE Core spec,
// Vol 3, Part F, §3.3 & §3.4). The rest of the standard ATT opcode
// space — Read By Type, Read Blob, Read Multiple, indications and
// notifications, prepared/execute writes, signed writes, and Write
// Command — is out of scope; any of them arriving here falls through
// to the unsupported-opcode branch in Server.Rx.
const (
	opError               = 0x01
	opMTUReq              = 0x02
	opMTUResp             = 0x03
	opFindInfoReq         = 0x04
	opFindInfoResp        = 0x05
	opFindByTypeValueReq  = 0x06
	opFindByTypeValueResp = 0x07
	opReadReq             = 0x0A
	opReadResp            = 0x0B
	opReadByGroupTypeReq  = 0x10
	opReadByGroupTypeResp = 0x11
	opWriteReq            = 0x12
	opWriteResp           = 0x13
)

// Declaration types recognized as groupable by Read By Group Type.
// GATT's full declaration taxonomy is out of scope; these two are the
// only ones a grouping request can legally name here.
const (
	primaryServiceType   = 0x2800
	secondaryServiceType = 0x2801
)

// Find Information response formats.
const (
	findInfoFormat16  = 0x01
	findInfoFormat128 = 0x02
)

// Error codes carried in an Error Response.
const (
	ecodeInvalidHandle = 0x01
	ecodeReadNotPerm   = 0x02
	ecodeWriteNotPerm  = 0x03
	ecodeInvalidPDU    = 0x04
	ecodeReqNotSupp    = 0x06
	ecodeAttrNotFound  = 0x0A
	ecodeUnsuppGrpType = 0x10
	ecodeUnlikely      = 0x0E
)

// errorResponse serializes an Error Response for the given request
// opcode, offending handle (0 when none applies), and error code.
func errorResponse(reqOpcode byte, handle uint16, ecode byte) []byte {
	return []byte{opError, reqOpcode, byte(handle), byte(handle >> 8), ecode}
}

// Package decode parses the binary session file format into a typed,
// ordered record stream. The byte-level algorithm (header parsing,
// definition/data message dispatch, compressed-timestamp reconstruction,
// per-base-type sentinel detection) is grounded directly on the teacher's
// own hand-rolled parser (llmexport/parser.go in the retrieval pack); the
// CRC-16 checksum itself is delegated to github.com/tormoder/fit/dyncrc16
// rather than reimplemented.
package decode

import (
	"encoding/binary"
	"math"

	"github.com/tormoder/fit/dyncrc16"

	"github.com/lucasjlepore/trainload/trainerr"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14
	fitTag          = ".FIT"

	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	compressedTimeMask         = 0x1F
	definitionMask             = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F
)

// Global message numbers recognized by the decoder, per spec §4.C's typed
// record set. Unrecognized numbers dispatch to RecordKindUnknown.
const (
	gmFileId          = 0
	gmDeviceInfo      = 23
	gmSession         = 18
	gmLap             = 19
	gmRecord          = 20
	gmEvent           = 21
	gmHrv             = 78
	gmMonitoring      = 55
	gmStressLevel     = 227
	gmFieldDesc       = 206
	gmDeveloperDataId = 207
)

// RecordKind discriminates the typed records spec §4.C requires.
type RecordKind int

const (
	RecordKindFileId RecordKind = iota
	RecordKindDeviceInfo
	RecordKindSession
	RecordKindLap
	RecordKindRecord
	RecordKindEvent
	RecordKindHrvRecord
	RecordKindStressLevel
	RecordKindMonitoring
	RecordKindDeveloperDataId
	RecordKindFieldDescription
	RecordKindUnknown
)

func kindForGlobal(global uint16) RecordKind {
	switch global {
	case gmFileId:
		return RecordKindFileId
	case gmDeviceInfo:
		return RecordKindDeviceInfo
	case gmSession:
		return RecordKindSession
	case gmLap:
		return RecordKindLap
	case gmRecord:
		return RecordKindRecord
	case gmEvent:
		return RecordKindEvent
	case gmHrv:
		return RecordKindHrvRecord
	case gmStressLevel:
		return RecordKindStressLevel
	case gmMonitoring:
		return RecordKindMonitoring
	case gmDeveloperDataId:
		return RecordKindDeveloperDataId
	case gmFieldDesc:
		return RecordKindFieldDescription
	default:
		return RecordKindUnknown
	}
}

// FieldValue is one decoded field, keyed by its field number within the
// message.
type FieldValue struct {
	FieldNumber uint8
	Raw         []byte
	Decoded     any // nil when the value is the base type's sentinel
	BaseType    string
}

// DevFieldValue is one decoded developer field.
type DevFieldValue struct {
	DeveloperDataIndex uint8
	FieldNumber        uint8
	Raw                []byte
}

// Record is one typed record in the decoded stream.
type Record struct {
	Kind             RecordKind
	GlobalMessageNum uint16
	Timestamp        uint32 // seconds since FIT epoch, 0 if not present
	Fields           map[uint8]FieldValue
	DevFields        []DevFieldValue
	ByteOffset       int64
}

// Field returns the decoded value for fieldNumber and whether it was
// present and not a sentinel.
func (r Record) Field(fieldNumber uint8) (any, bool) {
	f, ok := r.Fields[fieldNumber]
	if !ok || f.Decoded == nil {
		return nil, false
	}
	return f.Decoded, true
}

// Report summarizes the outcome of a decode pass.
type Report struct {
	HeaderCRCValid   bool
	HeaderCRCPresent bool
	FileCRCValid     bool
	Degraded         bool
	QualityFlags     []string
	RecordCount      int
	DefinitionCount  int
	DataMessageCount int
}

// Options controls decode behavior.
type Options struct {
	// Recovery enables degraded-quality continuation past a payload CRC
	// mismatch instead of returning an Integrity error (spec §4.C).
	Recovery bool
}

type fieldDef struct {
	FieldNumber uint8
	Size        uint8
	Base        baseType
}

type devFieldDef struct {
	FieldNumber uint8
	Size        uint8
	DevDataIdx  uint8
}

type localDefinition struct {
	Architecture uint8
	GlobalMesg   uint16
	Fields       []fieldDef
	DevFields    []devFieldDef
}

func (ld localDefinition) order() binary.ByteOrder {
	if ld.Architecture == 1 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type decodeState struct {
	data           []byte
	offset         int
	definitions    map[uint8]localDefinition
	lastTimestamp  uint32
	lastTimeOffset uint8
	haveTimestamp  bool
	opts           Options
	report         Report
	records        []Record
}

// Decode parses data and returns the typed record stream plus a decode
// report. A malformed or truncated header or an unsupported protocol version
// always returns a *trainerr.Error of kind trainerr.Format. In strict mode
// (Options.Recovery == false), a payload CRC mismatch returns a
// trainerr.Integrity error, and an error while parsing the payload (a data
// record referencing an undefined local definition is trainerr.Reference,
// truncated data is trainerr.Format) is returned as is; no records are
// returned with any error. In recovery mode, a CRC mismatch or a payload
// parse error yields the records decoded up to that point and a *Report with
// Degraded set and the "CRC-recovered" flag, and no error.
func Decode(data []byte, opts Options) ([]Record, *Report, error) {
	if len(data) < headerSizeNoCRC {
		return nil, nil, trainerr.New(trainerr.Format, "file too short for header: %d bytes", len(data))
	}
	headerSize := int(data[0])
	if headerSize != headerSizeNoCRC && headerSize != headerSizeCRC {
		return nil, nil, trainerr.New(trainerr.Format, "unsupported header size %d", headerSize)
	}
	if len(data) < headerSize {
		return nil, nil, trainerr.New(trainerr.Format, "truncated header")
	}
	protocolVersion := data[1]
	if protocolVersion>>4 > 2 {
		return nil, nil, trainerr.New(trainerr.Format, "unsupported protocol major version %d", protocolVersion>>4)
	}
	dataSize := binary.LittleEndian.Uint32(data[4:8])
	tag := string(data[8:12])
	if tag != fitTag {
		return nil, nil, trainerr.New(trainerr.Format, "missing .FIT tag, got %q", tag)
	}

	st := &decodeState{
		data:        data,
		offset:      headerSize,
		definitions: make(map[uint8]localDefinition),
		opts:        opts,
	}
	st.report.HeaderCRCPresent = headerSize == headerSizeCRC
	if st.report.HeaderCRCPresent {
		stored := binary.LittleEndian.Uint16(data[12:14])
		computed := dyncrc16.Checksum(data[:12])
		st.report.HeaderCRCValid = stored == computed
	} else {
		st.report.HeaderCRCValid = true
	}

	required := int(headerSize) + int(dataSize) + 2
	if len(data) < required {
		return nil, nil, trainerr.New(trainerr.Format, "truncated payload: need %d bytes, have %d", required, len(data))
	}
	storedFileCRC := binary.LittleEndian.Uint16(data[headerSize+int(dataSize) : required])
	computedFileCRC := dyncrc16.Checksum(data[:headerSize+int(dataSize)])
	st.report.FileCRCValid = storedFileCRC == computedFileCRC

	if !st.report.FileCRCValid {
		if !opts.Recovery {
			return nil, nil, trainerr.New(trainerr.Integrity, "payload CRC mismatch: stored=%04x computed=%04x", storedFileCRC, computedFileCRC)
		}
	}

	payloadEnd := headerSize + int(dataSize)
	err := st.parseRecords(payloadEnd)
	if err != nil {
		if opts.Recovery {
			st.report.Degraded = true
			st.report.QualityFlags = appendUnique(st.report.QualityFlags, "CRC-recovered")
		} else {
			return nil, nil, err
		}
	} else if !st.report.FileCRCValid {
		st.report.Degraded = true
		st.report.QualityFlags = appendUnique(st.report.QualityFlags, "CRC-recovered")
	}

	st.report.RecordCount = len(st.records)
	return st.records, &st.report, nil
}

func appendUnique(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}

func (st *decodeState) parseRecords(end int) error {
	for st.offset < end {
		start := int64(st.offset)
		header := st.data[st.offset]
		st.offset++

		if header&compressedHeaderMask != 0 {
			localType := (header & compressedLocalMesgNumMask) >> 5
			timeOffset := header & compressedTimeMask
			if err := st.parseDataRecord(localType, start, &timeOffset); err != nil {
				return err
			}
			continue
		}

		localType := header & localMesgNumMask
		if header&definitionMask != 0 {
			if err := st.parseDefinitionRecord(header, localType); err != nil {
				return err
			}
			st.report.DefinitionCount++
			continue
		}

		if err := st.parseDataRecord(localType, start, nil); err != nil {
			return err
		}
	}
	return nil
}

func (st *decodeState) parseDefinitionRecord(header, localType uint8) error {
	if st.offset+5 > len(st.data) {
		return trainerr.New(trainerr.Format, "truncated definition record")
	}
	st.offset++ // reserved byte
	arch := st.data[st.offset]
	st.offset++
	var order binary.ByteOrder = binary.LittleEndian
	if arch == 1 {
		order = binary.BigEndian
	}
	global := order.Uint16(st.data[st.offset : st.offset+2])
	st.offset += 2
	fieldCount := int(st.data[st.offset])
	st.offset++

	def := localDefinition{Architecture: arch, GlobalMesg: global}
	for i := 0; i < fieldCount; i++ {
		if st.offset+3 > len(st.data) {
			return trainerr.New(trainerr.Format, "truncated field definition")
		}
		fd := fieldDef{
			FieldNumber: st.data[st.offset],
			Size:        st.data[st.offset+1],
			Base:        decompressBaseType(st.data[st.offset+2]),
		}
		st.offset += 3
		def.Fields = append(def.Fields, fd)
	}

	if header&devDataMask != 0 {
		if st.offset >= len(st.data) {
			return trainerr.New(trainerr.Format, "truncated developer field count")
		}
		devCount := int(st.data[st.offset])
		st.offset++
		for i := 0; i < devCount; i++ {
			if st.offset+3 > len(st.data) {
				return trainerr.New(trainerr.Format, "truncated developer field definition")
			}
			dfd := devFieldDef{
				FieldNumber: st.data[st.offset],
				Size:        st.data[st.offset+1],
				DevDataIdx:  st.data[st.offset+2],
			}
			st.offset += 3
			def.DevFields = append(def.DevFields, dfd)
		}
	}

	st.definitions[localType] = def
	return nil
}

func (st *decodeState) parseDataRecord(localType uint8, byteOffset int64, compressedOffset *uint8) error {
	def, ok := st.definitions[localType]
	if !ok {
		return trainerr.New(trainerr.Reference, "data record references undefined local type %d", localType)
	}

	rec := Record{
		Kind:             kindForGlobal(def.GlobalMesg),
		GlobalMessageNum: def.GlobalMesg,
		Fields:           make(map[uint8]FieldValue, len(def.Fields)),
		ByteOffset:       byteOffset,
	}

	order := def.order()

	for _, fd := range def.Fields {
		size := int(fd.Size)
		if st.offset+size > len(st.data) {
			return trainerr.New(trainerr.Format, "truncated field data for field %d", fd.FieldNumber)
		}
		raw := st.data[st.offset : st.offset+size]
		st.offset += size

		fv := FieldValue{FieldNumber: fd.FieldNumber, Raw: raw, BaseType: baseSpecs[fd.Base].Name}
		if !isSentinel(fd.Base, raw, order) {
			fv.Decoded = decodeValue(fd.Base, raw, order)
		}
		rec.Fields[fd.FieldNumber] = fv

		if fd.FieldNumber == 253 {
			if ts, ok := fv.Decoded.(uint32); ok {
				st.lastTimestamp = ts
				st.haveTimestamp = true
				rec.Timestamp = ts
			}
		}
	}

	for _, dfd := range def.DevFields {
		size := int(dfd.Size)
		if st.offset+size > len(st.data) {
			return trainerr.New(trainerr.Format, "truncated developer field data")
		}
		raw := st.data[st.offset : st.offset+size]
		st.offset += size
		rec.DevFields = append(rec.DevFields, DevFieldValue{
			DeveloperDataIndex: dfd.DevDataIdx,
			FieldNumber:        dfd.FieldNumber,
			Raw:                raw,
		})
	}

	if compressedOffset != nil {
		if !st.haveTimestamp {
			// No reference timestamp yet; leave rec.Timestamp unset rather
			// than fabricate one.
		} else {
			delta := (*compressedOffset - uint8(st.lastTimestamp&0x1F) + 32) & 0x1F
			st.lastTimestamp += uint32(delta)
			rec.Timestamp = st.lastTimestamp
		}
	}

	st.report.DataMessageCount++
	st.records = append(st.records, rec)
	return nil
}

func decodeValue(bt baseType, raw []byte, order binary.ByteOrder) any {
	switch bt {
	case baseEnum, baseUint8, baseUint8z:
		return raw[0]
	case baseSint8:
		return int8(raw[0])
	case baseUint16, baseUint16z:
		return order.Uint16(raw)
	case baseSint16:
		return int16(order.Uint16(raw))
	case baseUint32, baseUint32z:
		return order.Uint32(raw)
	case baseSint32:
		return int32(order.Uint32(raw))
	case baseUint64, baseUint64z:
		return order.Uint64(raw)
	case baseSint64:
		return int64(order.Uint64(raw))
	case baseFloat32:
		return math.Float32frombits(order.Uint32(raw))
	case baseFloat64:
		return math.Float64frombits(order.Uint64(raw))
	case baseString:
		return decodeNullTerminatedString(raw)
	case baseByte:
		return append([]byte(nil), raw...)
	default:
		return nil
	}
}

func decodeNullTerminatedString(raw []byte) string {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// Fatal reports whether err is of a fatal kind (Format or Reference, or not a
// *trainerr.Error at all). Decode returns such errors from header checks in
// every mode and from payload parsing in strict mode; in recovery mode a
// payload parse error ends decoding with a degraded report instead.
func Fatal(err error) bool {
	kind, ok := trainerr.KindOf(err)
	if !ok {
		return true
	}
	switch kind {
	case trainerr.Format, trainerr.Reference:
		return true
	default:
		return false
	}
}

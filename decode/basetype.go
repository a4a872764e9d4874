package decode

// baseType is the canonical FIT base-type value, endian-ability bit (0x80)
// included for multi-byte types. Values and sizes below mirror
// the FIT base type table; grounded on the teacher's own byte-level parser
// (llmexport/parser.go), which enumerates exactly this set.
type baseType uint8

const (
	baseEnum    baseType = 0x00
	baseSint8   baseType = 0x01
	baseUint8   baseType = 0x02
	baseSint16  baseType = 0x83
	baseUint16  baseType = 0x84
	baseSint32  baseType = 0x85
	baseUint32  baseType = 0x86
	baseString  baseType = 0x07
	baseFloat32 baseType = 0x88
	baseFloat64 baseType = 0x89
	baseUint8z  baseType = 0x0A
	baseUint16z baseType = 0x8B
	baseUint32z baseType = 0x8C
	baseByte    baseType = 0x0D
	baseSint64  baseType = 0x8E
	baseUint64  baseType = 0x8F
	baseUint64z baseType = 0x90
)

type baseSpec struct {
	Name          string
	Size          int
	Signed        bool
	Floating      bool
	ZeroIsInvalid bool
}

var baseSpecs = map[baseType]baseSpec{
	baseEnum:    {"enum", 1, false, false, false},
	baseSint8:   {"sint8", 1, true, false, false},
	baseUint8:   {"uint8", 1, false, false, false},
	baseSint16:  {"sint16", 2, true, false, false},
	baseUint16:  {"uint16", 2, false, false, false},
	baseSint32:  {"sint32", 4, true, false, false},
	baseUint32:  {"uint32", 4, false, false, false},
	baseString:  {"string", 1, false, false, false},
	baseFloat32: {"float32", 4, false, true, false},
	baseFloat64: {"float64", 8, false, true, false},
	baseUint8z:  {"uint8z", 1, false, false, true},
	baseUint16z: {"uint16z", 2, false, false, true},
	baseUint32z: {"uint32z", 4, false, false, true},
	baseByte:    {"byte", 1, false, false, false},
	baseSint64:  {"sint64", 8, true, false, false},
	baseUint64:  {"uint64", 8, false, false, false},
	baseUint64z: {"uint64z", 8, false, false, true},
}

// decompressBaseType maps a raw field-definition base-type byte to the
// canonical baseType, masking off the top three bits (the endian-ability bit
// and the two reserved bits), which don't participate in type identity, and
// mapping the remaining 5-bit base type number (mirrors llmexport/parser.go's
// decompressBaseType).
func decompressBaseType(raw uint8) baseType {
	masked := raw & 0x1F
	switch masked {
	case 0x00:
		return baseEnum
	case 0x01:
		return baseSint8
	case 0x02:
		return baseUint8
	case 0x03:
		return baseSint16
	case 0x04:
		return baseUint16
	case 0x05:
		return baseSint32
	case 0x06:
		return baseUint32
	case 0x07:
		return baseString
	case 0x08:
		return baseFloat32
	case 0x09:
		return baseFloat64
	case 0x0A:
		return baseUint8z
	case 0x0B:
		return baseUint16z
	case 0x0C:
		return baseUint32z
	case 0x0D:
		return baseByte
	case 0x0E:
		return baseSint64
	case 0x0F:
		return baseUint64
	case 0x10:
		return baseUint64z
	default:
		return baseByte
	}
}

func isSentinel(bt baseType, raw []byte, order byteOrder) bool {
	spec, ok := baseSpecs[bt]
	if !ok {
		return false
	}
	if spec.ZeroIsInvalid {
		for _, b := range raw {
			if b != 0 {
				return false
			}
		}
		return true
	}
	switch bt {
	case baseEnum, baseUint8:
		return raw[0] == 0xFF
	case baseSint8:
		return raw[0] == 0x7F
	case baseUint16:
		return order.Uint16(raw) == 0xFFFF
	case baseSint16:
		return order.Uint16(raw) == 0x7FFF
	case baseUint32:
		return order.Uint32(raw) == 0xFFFFFFFF
	case baseSint32:
		return order.Uint32(raw) == 0x7FFFFFFF
	case baseUint64:
		return order.Uint64(raw) == 0xFFFFFFFFFFFFFFFF
	case baseSint64:
		return order.Uint64(raw) == 0x7FFFFFFFFFFFFFFF
	case baseFloat32:
		return order.Uint32(raw) == 0xFFFFFFFF
	case baseFloat64:
		return order.Uint64(raw) == 0xFFFFFFFFFFFFFFFF
	case baseByte:
		for _, b := range raw {
			if b != 0xFF {
				return false
			}
		}
		return true
	case baseString:
		for _, b := range raw {
			if b != 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// byteOrder is the minimal subset of encoding/binary.ByteOrder used while
// decoding field values; kept local so this file only imports what it needs.
type byteOrder interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
	Uint64([]byte) uint64
}

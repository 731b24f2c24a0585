package rom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math/bits"

	"github.com/hansbonini/z64tools/pkg/common"
)

const (
	headerSize     = 0x40
	bootcodeEnd    = 0x1000
	checksumStart  = 0x1000
	checksumLength = 0x100000
	crc1Offset     = 0x10
	crc2Offset     = 0x14

	// 6105 mixes in words of its own boot code.
	cic6105TableOffset = headerSize + 0x710
)

// Boot chips, named by their part number
const (
	CIC6101 = 6101
	CIC6102 = 6102
	CIC6103 = 6103
	CIC6105 = 6105
	CIC6106 = 6106
)

// CRC32 of the boot code (0x40-0x1000) for each boot chip
var bootcodeCRCs = map[uint32]int{
	0x6170A4A1: CIC6101,
	0x90BB6CB5: CIC6102,
	0x0B050EE0: CIC6103,
	0x98BC2C86: CIC6105,
	0xACC8580A: CIC6106,
}

var checksumSeeds = map[int]uint32{
	CIC6101: 0xF8CA4DDC,
	CIC6102: 0xF8CA4DDC,
	CIC6103: 0xA3886759,
	CIC6105: 0xDF26F436,
	CIC6106: 0x1FEA617A,
}

var (
	ErrImageTooSmall   = errors.New("image too small for boot checksum")
	ErrUnknownBootcode = errors.New("unknown boot code")
)

// IdentifyBootcode returns the boot chip matching the boot code of image,
// and the CRC32 it was identified by.
func IdentifyBootcode(image []byte) (int, uint32, error) {
	if len(image) < bootcodeEnd {
		return 0, 0, ErrImageTooSmall
	}
	sum := crc32.ChecksumIEEE(image[headerSize:bootcodeEnd])
	cic, ok := bootcodeCRCs[sum]
	if !ok {
		return 0, sum, fmt.Errorf("%w: CRC32 0x%08X", ErrUnknownBootcode, sum)
	}
	return cic, sum, nil
}

// CalculateChecksum computes the two header checksums the boot chip cic
// verifies over the first megabyte after the boot code.
func CalculateChecksum(image []byte, cic int) (uint32, uint32, error) {
	if len(image) < checksumStart+checksumLength {
		return 0, 0, ErrImageTooSmall
	}
	seed, ok := checksumSeeds[cic]
	if !ok {
		return 0, 0, fmt.Errorf("%w: CIC-%d", ErrUnknownBootcode, cic)
	}

	t1, t2, t3, t4, t5, t6 := seed, seed, seed, seed, seed, seed

	for i := checksumStart; i < checksumStart+checksumLength; i += 4 {
		d := binary.BigEndian.Uint32(image[i:])
		if t6+d < t6 {
			t4++
		}
		t6 += d
		t3 ^= d
		r := bits.RotateLeft32(d, int(d&0x1F))
		t5 += r
		if t2 > d {
			t2 ^= r
		} else {
			t2 ^= t6 ^ d
		}

		if cic == CIC6105 {
			t1 += binary.BigEndian.Uint32(image[cic6105TableOffset+(i&0xFF):]) ^ d
		} else {
			t1 += t5 ^ d
		}
	}

	switch cic {
	case CIC6103:
		return (t6 ^ t4) + t3, (t5 ^ t2) + t1, nil
	case CIC6106:
		return (t6 * t4) + t3, (t5 * t2) + t1, nil
	default:
		return t6 ^ t4 ^ t3, t5 ^ t2 ^ t1, nil
	}
}

// N64Checksum recomputes the boot checksum stored in the image header.
// Images with an unrecognized boot code are left untouched.
type N64Checksum struct{}

// Fix implements Checksummer
func (N64Checksum) Fix(image []byte) error {
	if len(image) < checksumStart+checksumLength {
		return ErrImageTooSmall
	}

	cic, sum, err := IdentifyBootcode(image)
	if errors.Is(err, ErrUnknownBootcode) {
		common.LogWarn(common.WarnUnknownBootcode, sum)
		return nil
	}
	if err != nil {
		return err
	}
	common.LogDebug(common.DebugChecksumBootcode, cic)

	crc1, crc2, err := CalculateChecksum(image, cic)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(image[crc1Offset:], crc1)
	binary.BigEndian.PutUint32(image[crc2Offset:], crc2)

	common.LogDebug(common.DebugChecksumUpdated, crc1, crc2)
	return nil
}

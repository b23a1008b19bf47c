package game

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// checksumRecord is the per-bike byte layout folded into the checksum:
// id u8, head.x i16, head.y i16, dir.x i16, dir.y i16, alive u8, little endian.
const checksumRecord = 1 + 2*4 + 1

// Checksum folds the bikes, in slice order, into a single comparison key.
// The layout and hash function are part of the wire contract.
func Checksum(bikes []Bike) uint64 {
	d := xxhash.New()
	var rec [checksumRecord]byte
	for i := range bikes {
		b := &bikes[i]
		rec[0] = b.ID
		binary.LittleEndian.PutUint16(rec[1:], uint16(b.Head.X))
		binary.LittleEndian.PutUint16(rec[3:], uint16(b.Head.Y))
		binary.LittleEndian.PutUint16(rec[5:], uint16(b.Dir.X))
		binary.LittleEndian.PutUint16(rec[7:], uint16(b.Dir.Y))
		rec[9] = 0
		if b.Alive {
			rec[9] = 1
		}
		_, _ = d.Write(rec[:])
	}
	return d.Sum64()
}

// Mix64 is a splitmix64 finalizer, used to derive well-spread seeds.
func Mix64(a, b uint64) uint64 {
	x := a + b
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

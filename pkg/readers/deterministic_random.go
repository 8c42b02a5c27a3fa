// Package readers contains deterministic sources of bytes and loss decisions
// for exercising transfers reproducibly.
package readers

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"io"

	"hop.computer/cctransfer/pkg"
	"hop.computer/cctransfer/pkg/must"
)

var iv = [aes.BlockSize]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

type ctrReader struct {
	stream cipher.Stream
}

// Read implements io.Reader. The output depends only on the seed and the
// number of bytes read so far, not on how reads are split. It cannot fail.
func (c *ctrReader) Read(p []byte) (int, error) {
	clear(p)
	c.stream.XORKeyStream(p, p)
	return len(p), nil
}

var _ io.Reader = &ctrReader{}

func newCTRReader(seed uint64) *ctrReader {
	key := [16]byte{}
	binary.LittleEndian.PutUint64(key[:], seed)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		pkg.Panicf("unable to create new aes: %s", err)
	}
	return &ctrReader{stream: cipher.NewCTR(block, iv[:])}
}

// DeterministicRandomReader returns a "random" reader keyed by seed, using AES
// in CTR mode with a static IV.
func DeterministicRandomReader(seed uint64) io.Reader {
	return newCTRReader(seed)
}

// Payload returns n deterministic bytes for seed.
func Payload(seed uint64, n int) []byte {
	b := make([]byte, n)
	must.Do(io.ReadFull(DeterministicRandomReader(seed), b))
	return b
}

// LossModel decides which transmissions a simulated link drops.
type LossModel struct {
	r    *ctrReader
	bits int
}

// NewLossModel returns a model that drops one transmission in 2^bits.
func NewLossModel(seed uint64, bits int) *LossModel {
	if bits > 7 || bits < 0 {
		pkg.Panicf("bits must be in the range 0-7, got %d", bits)
	}
	return &LossModel{
		r:    newCTRReader(seed),
		bits: bits,
	}
}

// Drop reports whether the next transmission is lost.
func (m *LossModel) Drop() bool {
	var buf [1]byte
	must.Do(m.r.Read(buf[:]))
	mask := byte((1 << m.bits) - 1)
	return buf[0]&mask == 0
}

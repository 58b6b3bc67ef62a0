package types

import (
	"encoding/binary"
	"errors"

	"github.com/tendermint/tendermint/crypto/tmhash"
	tmbytes "github.com/tendermint/tendermint/libs/bytes"
)

// Batch is a validator's proposal payload for a single round. The payload
// itself is opaque here; it is produced and interpreted by the batch
// proposal subsystem.
type Batch struct {
	Author  Address          `json:"author"`
	Round   uint64           `json:"round"`
	Payload tmbytes.HexBytes `json:"payload"`
}

// Hash returns the unique digest of the batch contents.
func (b Batch) Hash() tmbytes.HexBytes {
	bz := make([]byte, 0, AddressSize+8+len(b.Payload))
	bz = append(bz, b.Author[:]...)

	var round [8]byte
	binary.BigEndian.PutUint64(round[:], b.Round)
	bz = append(bz, round[:]...)
	bz = append(bz, b.Payload...)

	return tmhash.Sum(bz)
}

func (b Batch) ValidateBasic() error {
	if len(b.Payload) == 0 {
		return errors.New("batch has no payload")
	}
	return nil
}

// BatchCertificate proves that a batch received sufficient endorsement from
// the committee. The signature is treated as opaque bytes; verification is
// the certificate aggregation subsystem's concern.
type BatchCertificate struct {
	BatchHash tmbytes.HexBytes `json:"batch_hash"`
	Round     uint64           `json:"round"`
	Signature tmbytes.HexBytes `json:"signature"`
}

func (cert BatchCertificate) ValidateBasic() error {
	if len(cert.BatchHash) == 0 {
		return errors.New("certificate has no batch hash")
	}
	if len(cert.Signature) == 0 {
		return errors.New("certificate has no signature")
	}
	return nil
}

// SealedBatch bundles a batch with the certificate it was sealed under.
type SealedBatch struct {
	Batch Batch            `json:"batch"`
	Cert  BatchCertificate `json:"certificate"`
}

func NewSealedBatch(batch Batch, cert BatchCertificate) SealedBatch {
	return SealedBatch{
		Batch: batch,
		Cert:  cert,
	}
}

// Certificate returns the certificate the batch was sealed under.
func (sb SealedBatch) Certificate() BatchCertificate {
	return sb.Cert
}

func (sb SealedBatch) ValidateBasic() error {
	if err := sb.Batch.ValidateBasic(); err != nil {
		return err
	}
	return sb.Cert.ValidateBasic()
}

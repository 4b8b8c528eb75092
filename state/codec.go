// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountTypeMismatch = errors.New("account type mismatch")
	ErrTrailingData        = errors.New("trailing account data")
)

// Marshaler is the encoding half of Layout. Layouts encode with value
// receivers, so plain values satisfy it
type Marshaler = bin.BinaryMarshaler

// Layout is implemented by every account and instruction payload that has
// a borsh representation
type Layout interface {
	Marshaler
	UnmarshalWithDecoder(dec *bin.Decoder) error
}

// Marshal encodes v with borsh
func Marshal(v Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v and rejects trailing bytes
func Unmarshal(data []byte, v Layout) error {
	dec := bin.NewBorshDecoder(data)
	if err := v.UnmarshalWithDecoder(dec); err != nil {
		return err
	}
	if dec.Remaining() > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, dec.Remaining())
	}
	return nil
}

// PeekAccountType returns the discriminant of serialized account data
func PeekAccountType(data []byte) AccountType {
	if len(data) == 0 {
		return AccountTypeUninitialized
	}
	return AccountType(data[0])
}

// Writer accumulates the first encoding error so that layouts can be
// written field by field
type Writer struct {
	enc *bin.Encoder
	err error
}

func NewWriter(enc *bin.Encoder) *Writer {
	return &Writer{enc: enc}
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) U8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *Writer) Bool(v bool) {
	if w.err == nil {
		w.err = w.enc.WriteBool(v)
	}
}

func (w *Writer) U16(v uint16) {
	if w.err == nil {
		w.err = w.enc.WriteUint16(v, binary.LittleEndian)
	}
}

func (w *Writer) U32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, binary.LittleEndian)
	}
}

func (w *Writer) U64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, binary.LittleEndian)
	}
}

func (w *Writer) I64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, binary.LittleEndian)
	}
}

func (w *Writer) Str(v string) {
	if w.err == nil {
		w.err = w.enc.WriteString(v)
	}
}

// Bytes writes a u32 length prefixed byte vector
func (w *Writer) Bytes(v []byte) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(v, true)
	}
}

func (w *Writer) Pubkey(v solana.PublicKey) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(v[:], false)
	}
}

// Option writes the presence byte and reports whether a value follows
func (w *Writer) Option(present bool) bool {
	if w.err == nil {
		w.err = w.enc.WriteOption(present)
	}
	return present && w.err == nil
}

func (w *Writer) OptionPubkey(v *solana.PublicKey) {
	if w.Option(v != nil) {
		w.Pubkey(*v)
	}
}

func (w *Writer) OptionI64(v *int64) {
	if w.Option(v != nil) {
		w.I64(*v)
	}
}

func (w *Writer) OptionU64(v *uint64) {
	if w.Option(v != nil) {
		w.U64(*v)
	}
}

func (w *Writer) OptionU8(v *uint8) {
	if w.Option(v != nil) {
		w.U8(*v)
	}
}

// Layout writes a nested layout
func (w *Writer) Layout(v Marshaler) {
	if w.err == nil {
		w.err = v.MarshalWithEncoder(w.enc)
	}
}

// Len writes a u32 vector length
func (w *Writer) Len(n int) {
	w.U32(uint32(n)) // #nosec G115
}

// Reader is the decoding counterpart of Writer
type Reader struct {
	dec *bin.Decoder
	err error
}

func NewReader(dec *bin.Decoder) *Reader {
	return &Reader{dec: dec}
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) U8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint8()
	r.err = err
	return v
}

func (r *Reader) Bool() bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadBool()
	r.err = err
	return v
}

func (r *Reader) U16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint16(binary.LittleEndian)
	r.err = err
	return v
}

func (r *Reader) U32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *Reader) U64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *Reader) I64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *Reader) Str() string {
	if r.err != nil {
		return ""
	}
	v, err := r.dec.ReadString()
	r.err = err
	return v
}

func (r *Reader) Bytes() []byte {
	n := r.Len()
	if r.err != nil {
		return nil
	}
	v, err := r.dec.ReadNBytes(n)
	if err != nil {
		r.err = err
		return nil
	}
	return bytes.Clone(v)
}

func (r *Reader) Pubkey() solana.PublicKey {
	var pk solana.PublicKey
	if r.err != nil {
		return pk
	}
	v, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		r.err = err
		return pk
	}
	copy(pk[:], v)
	return pk
}

func (r *Reader) Option() bool {
	if r.err != nil {
		return false
	}
	v, err := r.dec.ReadOption()
	r.err = err
	return v
}

func (r *Reader) OptionPubkey() *solana.PublicKey {
	if !r.Option() {
		return nil
	}
	pk := r.Pubkey()
	return &pk
}

func (r *Reader) OptionI64() *int64 {
	if !r.Option() {
		return nil
	}
	v := r.I64()
	return &v
}

func (r *Reader) OptionU64() *uint64 {
	if !r.Option() {
		return nil
	}
	v := r.U64()
	return &v
}

func (r *Reader) OptionU8() *uint8 {
	if !r.Option() {
		return nil
	}
	v := r.U8()
	return &v
}

func (r *Reader) Layout(v Layout) {
	if r.err == nil {
		r.err = v.UnmarshalWithDecoder(r.dec)
	}
}

// Len reads a u32 vector length, bounded by the bytes left to decode
func (r *Reader) Len() int {
	n := r.U32()
	if r.err != nil {
		return 0
	}
	if int(n) > r.dec.Remaining() {
		r.err = fmt.Errorf("vector length %d exceeds remaining %d bytes", n, r.dec.Remaining())
		return 0
	}
	return int(n)
}

// AccountTypeTag reads and checks the leading discriminant
func (r *Reader) AccountTypeTag(want AccountType) {
	got := AccountType(r.U8())
	if r.err == nil && got != want {
		r.err = fmt.Errorf("%w: want %s, got %s", ErrAccountTypeMismatch, want, got)
	}
}

// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeAddress12Bit(t *testing.T) {
	enc := encodeAddress(0, addressForm12Bit)
	require.Equal(t, [2]byte{0x40, 0x40}, enc)

	enc = encodeAddress(11*80+39, addressForm12Bit)
	require.Equal(t, [2]byte{0x4e, 0xd7}, enc)
}

func TestDecodeAddress12Bit(t *testing.T) {
	addr, err := decodeAddress([2]byte{0x40, 0x40}, addressForm12Bit, 1920)
	require.NoError(t, err)
	require.Equal(t, 0, addr)

	addr, err = decodeAddress([2]byte{0x4e, 0xd7}, addressForm12Bit, 1920)
	require.NoError(t, err)
	require.Equal(t, 919, addr)
}

func TestDecodeAddressInvalidByte(t *testing.T) {
	_, err := decodeAddress([2]byte{0x01, 0x40}, addressForm12Bit, 1920)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestDecodeAddressOutOfRange(t *testing.T) {
	// Valid 12-bit code points, but the resulting address is beyond a
	// tiny buffer.
	_, err := decodeAddress([2]byte{0x40, 0x40}, addressForm12Bit, 0)
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddressFormSelection(t *testing.T) {
	require.Equal(t, addressForm12Bit, addressFormFor(24*80))
	require.Equal(t, addressForm12Bit, addressFormFor(43*80))
	require.Equal(t, addressForm12Bit, addressFormFor(27*132))
	require.Equal(t, addressForm14Bit, addressFormFor(5000))
	require.Equal(t, addressForm16Bit, addressFormFor(20000))
}

func TestAddressRoundTrip14Bit(t *testing.T) {
	const bufSize = 8000
	for _, addr := range []int{0, 1, 4095, 4096, 7999} {
		enc := encodeAddress(addr, addressForm14Bit)
		got, err := decodeAddress(enc, addressForm14Bit, bufSize)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	}
}

func TestAddressRoundTrip16Bit(t *testing.T) {
	const bufSize = 20000
	for _, addr := range []int{0, 1, 16383, 16384, 19999} {
		enc := encodeAddress(addr, addressForm16Bit)
		got, err := decodeAddress(enc, addressForm16Bit, bufSize)
		require.NoError(t, err)
		require.Equal(t, addr, got)
	}
}

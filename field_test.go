// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldTableResetIsUnformatted(t *testing.T) {
	ft := NewFieldTable(1920)
	require.True(t, ft.IsUnformatted())
	require.Equal(t, 1920, ft.TotalLength())
	f := ft.FieldAt(0)
	require.False(t, f.Attribute.Protected)
}

func TestFieldTableAddFieldSplitsCoverage(t *testing.T) {
	ft := NewFieldTable(1920)
	protID := ft.AddField(0, FieldAttribute{Protected: true})
	unprotID := ft.AddField(6, FieldAttribute{})

	require.False(t, ft.IsUnformatted())
	// Content cells only: the two attribute cells are not counted.
	require.Equal(t, 1920-2, ft.TotalLength())

	// Content of the protected field runs from 1..5 (length 5).
	protF := ft.Get(protID)
	require.Equal(t, 5, protF.Length)

	// Content of the unprotected field wraps from 7 back around to
	// address 0 (the next field's attribute cell).
	unprotF := ft.Get(unprotID)
	require.Equal(t, 1920-7, unprotF.Length)

	require.Equal(t, protID, ft.FieldAt(0).ID)
	require.Equal(t, protID, ft.FieldAt(3).ID)
	require.Equal(t, unprotID, ft.FieldAt(6).ID)
	require.Equal(t, unprotID, ft.FieldAt(1919).ID)
}

func TestFieldTableAddFieldReplacesExisting(t *testing.T) {
	ft := NewFieldTable(100)
	id1 := ft.AddField(10, FieldAttribute{Protected: true})
	id2 := ft.AddField(10, FieldAttribute{Protected: false})
	require.Equal(t, id1, id2)
	require.False(t, ft.Get(id1).Attribute.Protected)
}

func TestFieldTableModifiedFieldsAscendingOrder(t *testing.T) {
	ft := NewFieldTable(100)
	a := ft.AddField(40, FieldAttribute{})
	b := ft.AddField(0, FieldAttribute{})
	ft.SetMDT(a, true)
	ft.SetMDT(b, true)

	mods := ft.ModifiedFields()
	require.Len(t, mods, 2)
	require.Equal(t, b, mods[0].ID)
	require.Equal(t, a, mods[1].ID)
}

func TestFieldTableClearAllMDT(t *testing.T) {
	ft := NewFieldTable(100)
	id := ft.AddField(0, FieldAttribute{Modified: true})
	ft.ClearAllMDT()
	require.False(t, ft.Get(id).Attribute.Modified)
}

func TestFieldTableIterFromWraps(t *testing.T) {
	ft := NewFieldTable(100)
	a := ft.AddField(0, FieldAttribute{})
	b := ft.AddField(10, FieldAttribute{})
	c := ft.AddField(20, FieldAttribute{})

	order := ft.IterFrom(b, Forward)
	require.Equal(t, []FieldID{b, c, a}, order)

	back := ft.IterFrom(b, Backward)
	require.Equal(t, []FieldID{b, a, c}, back)
}

func TestFieldAttributeByteRoundTrip(t *testing.T) {
	cases := []FieldAttribute{
		{},
		{Protected: true},
		{Numeric: true, Modified: true},
		{Display: DisplayIntensified},
		{Display: DisplayNonDisplay, Protected: true},
	}
	for _, a := range cases {
		wire := a.EncodeByte()
		got, err := DecodeAttributeByte(wire)
		require.NoError(t, err)
		require.Equal(t, a.Protected, got.Protected)
		require.Equal(t, a.Numeric, got.Numeric)
		require.Equal(t, a.Modified, got.Modified)
		require.Equal(t, a.Display, got.Display)
	}
}

func TestFieldAttributeApplyExtendedPair(t *testing.T) {
	var a FieldAttribute
	require.True(t, a.ApplyExtendedPair(byte(ExtendedForegroundColor), byte(ColorGreen)))
	require.Equal(t, ColorGreen, a.Color)
	require.True(t, a.ApplyExtendedPair(byte(ExtendedHighlighting), byte(HighlightUnderscore)))
	require.Equal(t, HighlightUnderscore, a.Highlight)
	require.False(t, a.ApplyExtendedPair(0x99, 0x01))
}

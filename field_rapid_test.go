// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// A FieldTable's fields always partition the buffer exactly: every cell
// is covered by exactly one field (as its attribute cell or a content
// cell), and content lengths plus one attribute cell per real field sum
// to the buffer size.
func TestFieldTablePartitionsBufferAfterRandomAddField(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 256).Draw(t, "size")
		ft := NewFieldTable(size)

		n := rapid.IntRange(0, 20).Draw(t, "n")
		for i := 0; i < n; i++ {
			addr := rapid.IntRange(0, size-1).Draw(t, "addr")
			protected := rapid.Bool().Draw(t, "protected")
			ft.AddField(addr, FieldAttribute{Protected: protected})
		}

		realFields := 0
		covered := make(map[int]bool)
		for _, f := range ft.Fields() {
			if f.StartAddress >= 0 {
				realFields++
				assert.False(t, covered[f.StartAddress], "attribute cell %d covered twice", f.StartAddress)
				covered[f.StartAddress] = true
			}
			start := f.ContentStart(size)
			for j := 0; j < f.Length; j++ {
				cell := (start + j) % size
				assert.False(t, covered[cell], "cell %d covered by more than one field", cell)
				covered[cell] = true
			}
		}
		assert.Equal(t, size-realFields, ft.TotalLength())
		assert.Len(t, covered, size)
	})
}

// FieldAt never returns nil for any in-bounds address, regardless of how
// many fields have been added.
func TestFieldAtIsTotalOverBuffer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 256).Draw(t, "size")
		ft := NewFieldTable(size)

		n := rapid.IntRange(0, 20).Draw(t, "n")
		for i := 0; i < n; i++ {
			addr := rapid.IntRange(0, size-1).Draw(t, "addr")
			ft.AddField(addr, FieldAttribute{})
		}

		addr := rapid.IntRange(0, size-1).Draw(t, "probe")
		assert.NotNil(t, ft.FieldAt(addr))
	})
}

// ModifiedFields is always a subset of Fields, ordered ascending by
// attribute (start) address, and contains only fields with MDT set.
func TestModifiedFieldsSubsetOrderedAscending(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(2, 256).Draw(t, "size")
		ft := NewFieldTable(size)

		n := rapid.IntRange(1, 10).Draw(t, "n")
		for i := 0; i < n; i++ {
			addr := rapid.IntRange(0, size-1).Draw(t, "addr")
			id := ft.AddField(addr, FieldAttribute{})
			if rapid.Bool().Draw(t, "modified") {
				ft.SetMDT(id, true)
			}
		}

		mods := ft.ModifiedFields()
		for i := 1; i < len(mods); i++ {
			assert.LessOrEqual(t, ft.Get(mods[i-1].ID).StartAddress, ft.Get(mods[i].ID).StartAddress)
		}
		for _, m := range mods {
			assert.True(t, m.Attr.Modified)
		}
	})
}

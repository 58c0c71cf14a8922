// This file is part of a tn3270 core derived from the architecture of
// https://github.com/racingmars/go3270/, relicensed and reworked under the
// MIT license. See LICENSE in the project root for license information.

package tn3270core

import (
	"fmt"
	"regexp"
	"strings"
)

// ScreenField is one declaratively described field of a Screen layout:
// a convenience on top of Core's byte-level Order/Data events for
// building a screen without hand-assembling SF/SBA orders.
type ScreenField struct {
	Name string // empty for a display-only field never read back

	Row, Col int
	Content  string

	Write   bool // unprotected (operator-writable)
	Numeric bool
	Intense bool
	Hidden  bool

	Color     Color
	Highlight Highlight
}

// Screen is a declarative screen layout, rendered onto a Core by
// RenderLayout.
type Screen []ScreenField

// RenderLayout clears the active buffer and writes layout onto it, as
// an EraseWrite record would: every field gets a Start-Field attribute
// cell plus its content, overridden per-field by values when a name
// matches. Unlocks the keyboard when done, as a host completing a
// Write/EraseWrite with WCC.keyboard-restore would.
func (c *Core) RenderLayout(layout Screen, values map[string]string) {
	screen := c.activeScreen()
	fields := c.activeFields()

	screen.Clear()
	fields.Reset()

	for _, lf := range layout {
		addr := screen.AddressOf(lf.Row, lf.Col)

		attr := FieldAttribute{
			Protected: !lf.Write,
			Numeric:   lf.Numeric,
			Color:     lf.Color,
			Highlight: lf.Highlight,
		}
		switch {
		case lf.Hidden:
			attr.Display = DisplayNonDisplay
		case lf.Intense:
			attr.Display = DisplayIntensified
		}
		fields.AddField(addr, attr)
		screen.WriteHost(addr, 0x40)

		content := lf.Content
		if lf.Name != "" {
			if v, ok := values[lf.Name]; ok {
				content = v
			}
		}
		encoded := c.codec.EncodeString(content)
		start := screen.NextAddress(addr, 1)
		for i, b := range encoded {
			screen.WriteHost(screen.NextAddress(start, i), b)
		}
	}

	screen.UnlockKeyboard()
}

// ReadLayoutValues reads back the current content of every named field
// in layout, trailing spaces and NULs trimmed.
func (c *Core) ReadLayoutValues(layout Screen) map[string]string {
	screen := c.activeScreen()
	fields := c.activeFields()
	size := screen.Size()

	out := make(map[string]string)
	for _, lf := range layout {
		if lf.Name == "" {
			continue
		}
		addr := screen.AddressOf(lf.Row, lf.Col)
		f := fields.FieldAt(addr)
		start := f.ContentStart(size)
		raw := make([]byte, f.Length)
		for i := range raw {
			raw[i] = screen.Read((start + i) % size)
		}
		out[lf.Name] = strings.TrimRight(c.codec.DecodeString(raw), " \x00")
	}
	return out
}

// Rules maps field names to the FieldRules validation should enforce
// for them. Fields not present in the map are not validated.
type Rules map[string]FieldRules

// Validator reports whether input is an acceptable value for a field.
type Validator func(input string) bool

// NonBlank is a Validator rejecting a value that is empty after
// trimming surrounding whitespace.
var NonBlank Validator = func(input string) bool {
	return strings.TrimSpace(input) != ""
}

var isIntegerRegexp = regexp.MustCompile(`^-?[0-9]+$`)

// IsInteger is a Validator accepting an optionally-negative integer,
// surrounding whitespace trimmed.
var IsInteger Validator = func(input string) bool {
	return isIntegerRegexp.MatchString(strings.TrimSpace(input))
}

// FieldRules are the validation rules for one field.
type FieldRules struct {
	// MustChange requires the field's value differ from its original
	// default (or be non-empty, if there was no default).
	MustChange bool

	// ErrorText is shown when MustChange fails. Empty means a generic
	// message naming the field is generated.
	ErrorText string

	// Validator, if non-nil, runs after the MustChange check.
	Validator Validator

	// Reset, when true, restores the field to its original value
	// whenever the screen is redisplayed after a failed submission.
	Reset bool
}

// Submit is the seam between HandleScreen and the outside world:
// presenting layout (already rendered onto core) to an operator and
// returning the AID they pressed along with the fields' current values.
// Actually performing that round trip over a connection is outside this
// core's scope (spec.md §1 Non-goals: TCP/TLS I/O); a caller supplies it.
type Submit func(core *Core, layout Screen) (aid AID, values map[string]string, err error)

// HandleScreen loops rendering layout and invoking submit until the
// operator presses a key in pfkeys with every Rules-validated field
// passing, or presses a key in exitkeys (validation skipped). Adapted
// from the teacher's HandleScreen/HandleScreenAlt pair, generalized to
// drive a Core instead of a bare net.Conn and an injected Submit instead
// of an in-line network round trip.
func HandleScreen(core *Core, layout Screen, rules Rules, values map[string]string,
	pfkeys, exitkeys []AID, errorField string, submit Submit) (AID, map[string]string, error) {

	origValues := make(map[string]string)
	for _, f := range layout {
		if f.Name != "" {
			origValues[f.Name] = f.Content
		}
	}

	myValues := make(map[string]string, len(values))
	for k, v := range values {
		myValues[k] = v
	}

mainloop:
	for {
		for field, rule := range rules {
			if !rule.Reset {
				continue
			}
			if value, ok := origValues[field]; ok {
				myValues[field] = value
			} else {
				delete(myValues, field)
			}
		}

		core.RenderLayout(layout, myValues)

		if submit == nil {
			return AIDNone, myValues, nil
		}

		aid, newValues, err := submit(core, layout)
		if err != nil {
			return AIDNone, myValues, err
		}

		if aidInArray(aid, exitkeys) {
			return aid, mergeFieldValues(myValues, newValues), nil
		}

		if !aidInArray(aid, pfkeys) {
			if !aid.IsShortRead() {
				myValues = mergeFieldValues(myValues, newValues)
			}
			myValues[errorField] = fmt.Sprintf("%s: unknown key", aid.String())
			continue
		}

		if aid.IsShortRead() {
			return aid, myValues, nil
		}

		myValues = mergeFieldValues(myValues, newValues)
		delete(myValues, errorField)

		for field, rule := range rules {
			if _, ok := myValues[field]; !ok {
				continue
			}
			if rule.MustChange && myValues[field] == origValues[field] {
				if rule.ErrorText != "" {
					myValues[errorField] = rule.ErrorText
				} else {
					myValues[errorField] = fmt.Sprintf("Please enter a valid value for %s.", field)
				}
				continue mainloop
			}
			if rule.Validator != nil && !rule.Validator(myValues[field]) {
				myValues[errorField] = fmt.Sprintf("Value for %s is not valid", field)
				continue mainloop
			}
		}

		return aid, myValues, nil
	}
}

func aidInArray(aid AID, aids []AID) bool {
	for _, a := range aids {
		if a == aid {
			return true
		}
	}
	return false
}

// mergeFieldValues returns a new map containing every key from current,
// plus any key from original missing from current -- needed because a
// caller may supply override values for non-writable fields that never
// round-trip back from the operator.
func mergeFieldValues(original, current map[string]string) map[string]string {
	result := make(map[string]string, len(current)+len(original))
	for k, v := range current {
		result[k] = v
	}
	for k, v := range original {
		if _, ok := result[k]; !ok {
			result[k] = v
		}
	}
	return result
}

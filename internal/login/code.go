package login

import "strings"

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// CodeInput models the verification code entry as six independent
// single-digit slots with focus auto-advance and auto-retreat, while the
// logical value stays one 6-character string.
type CodeInput struct {
	slots [CodeLength]byte
}

// SetSlot writes user input into slot i and returns the slot that should hold
// focus next. Non-digit characters are stripped rather than rejected; an
// empty result clears the slot. Entering a digit advances focus until the
// last slot.
func (c *CodeInput) SetSlot(i int, input string) (focus int) {
	if i < 0 || i >= CodeLength {
		return clamp(i)
	}

	digits := stripNonDigits(input)
	if digits == "" {
		c.slots[i] = 0
		return i
	}

	c.slots[i] = digits[0]
	if i < CodeLength-1 {
		return i + 1
	}
	return i
}

// Backspace handles the delete key in slot i and returns the slot that should
// hold focus next. A filled slot is cleared in place; backspacing into an
// empty slot retreats to and clears the previous one.
func (c *CodeInput) Backspace(i int) (focus int) {
	if i < 0 || i >= CodeLength {
		return clamp(i)
	}
	if c.slots[i] != 0 {
		c.slots[i] = 0
		return i
	}
	if i > 0 {
		c.slots[i-1] = 0
		return i - 1
	}
	return i
}

// Fill distributes the digits of input across the slots from the start,
// stripping non-digits and ignoring overflow. Returns the focus slot.
func (c *CodeInput) Fill(input string) (focus int) {
	digits := stripNonDigits(input)
	for i := 0; i < CodeLength; i++ {
		if i < len(digits) {
			c.slots[i] = digits[i]
		} else {
			c.slots[i] = 0
		}
	}
	if len(digits) >= CodeLength {
		return CodeLength - 1
	}
	return len(digits)
}

// String returns the filled slots in order.
func (c *CodeInput) String() string {
	var b strings.Builder
	for _, s := range c.slots {
		if s != 0 {
			b.WriteByte(s)
		}
	}
	return b.String()
}

// Complete reports whether all six slots are filled; submission is enabled
// only then.
func (c *CodeInput) Complete() bool {
	for _, s := range c.slots {
		if s == 0 {
			return false
		}
	}
	return true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= CodeLength {
		return CodeLength - 1
	}
	return i
}

package model

import (
	"fmt"
	"strconv"
	"strings"
)

// HandleKind tells which identifier a MemberHandle carries.
type HandleKind int

const (
	// HandleCard is a 16-digit member card number
	HandleCard HandleKind = iota + 1
	// HandleMobile is a 10-digit mobile number
	HandleMobile
)

const (
	cardDigits   = 16
	mobileDigits = 10
)

// MemberHandle identifies a member either by card or by mobile number.
type MemberHandle struct {
	Kind   HandleKind
	Card   uint64
	Mobile string
}

// ErrInvalidHandle is returned for input that is neither a card nor a mobile number.
type ErrInvalidHandle struct {
	Input string
}

func (e *ErrInvalidHandle) Error() string {
	return fmt.Sprintf("%q is neither a %d-digit card number nor a %d-digit mobile number", e.Input, cardDigits, mobileDigits)
}

// ParseMemberHandle parses a card number or a mobile number.
func ParseMemberHandle(raw string) (MemberHandle, error) {
	s := strings.TrimSpace(raw)
	if !allDigits(s) {
		return MemberHandle{}, &ErrInvalidHandle{Input: raw}
	}
	switch len(s) {
	case cardDigits:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return MemberHandle{}, &ErrInvalidHandle{Input: raw}
		}
		return MemberHandle{Kind: HandleCard, Card: n}, nil
	case mobileDigits:
		return MemberHandle{Kind: HandleMobile, Mobile: s}, nil
	}
	return MemberHandle{}, &ErrInvalidHandle{Input: raw}
}

// ParseCardNumber accepts only a 16-digit card number and returns it in canonical form.
func ParseCardNumber(raw string) (string, error) {
	h, err := ParseMemberHandle(raw)
	if err != nil {
		return "", err
	}
	if h.Kind != HandleCard {
		return "", &ErrInvalidHandle{Input: raw}
	}
	return h.CardNumber(), nil
}

// CardNumber formats the card as its 16-digit string.
func (h MemberHandle) CardNumber() string {
	if h.Kind != HandleCard {
		return ""
	}
	return fmt.Sprintf("%0*d", cardDigits, h.Card)
}

func (h MemberHandle) String() string {
	switch h.Kind {
	case HandleCard:
		return h.CardNumber()
	case HandleMobile:
		return h.Mobile
	}
	return ""
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

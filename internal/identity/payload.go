package identity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts both JSON strings and numbers; the directory sends card
// numbers either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		*f = flexString(strconv.FormatUint(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

type memberRecord struct {
	CardNumber   flexString `json:"card_number"`
	MobileNumber flexString `json:"mobile_number"`
	FullName     string     `json:"full_name"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
}

// memberPayload matches both a bare record and a {"data": record} envelope.
type memberPayload struct {
	memberRecord
	Data *memberRecord `json:"data"`
}

func (p memberPayload) member() *Member {
	r := p.memberRecord
	if p.Data != nil {
		r = *p.Data
	}
	name := r.FullName
	if name == "" {
		name = r.Name
	}
	return &Member{
		CardNumber:   string(r.CardNumber),
		MobileNumber: string(r.MobileNumber),
		FullName:     name,
		Email:        r.Email,
	}
}

type businessRecord struct {
	BusinessID   flexString `json:"business_id"`
	BusinessName string     `json:"business_name"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
}

type businessPayload struct {
	businessRecord
	Data *businessRecord `json:"data"`
}

func (p businessPayload) business() *Business {
	r := p.businessRecord
	if p.Data != nil {
		r = *p.Data
	}
	name := r.BusinessName
	if name == "" {
		name = r.Name
	}
	return &Business{
		BusinessID:   string(r.BusinessID),
		BusinessName: name,
		Email:        r.Email,
	}
}

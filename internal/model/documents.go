package model

import (
	"path"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	// DocumentStatusPending is the status of a document nobody has reviewed yet
	DocumentStatusPending = "pending"
	// DocumentStatusProcessing indicates that staff started reviewing the document
	DocumentStatusProcessing = "processing"
	// DocumentStatusVerified indicates that the document is authentic
	DocumentStatusVerified = "verified"
	// DocumentStatusRejected indicates that the document failed verification
	DocumentStatusRejected = "rejected"
)

// IsDocumentStatus reports whether s is one of the four verification statuses.
func IsDocumentStatus(s string) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusVerified, DocumentStatusRejected:
		return true
	}
	return false
}

// Slot describes a named document artifact a member can keep on file.
// Name is used in status maps and verification requests, Column and JSON
// name the storage column and the API field.
type Slot struct {
	Name   string
	Column string
}

// SlotResume is the slot reused by every application of a member.
const SlotResume = "Resume"

// Slots is the ordered table of every document slot.
var Slots = []Slot{
	{"TenthCertificate", "tenth_certificate"},
	{"TwelfthCertificate", "twelfth_certificate"},
	{"GraduationCertificate", "graduation_certificate"},
	{"PGCertificate", "pg_certificate"},
	{"GraduationMarksheet", "graduation_marksheet"},
	{"TechnicalCertification", "technical_certification"},
	{"LanguageCertification", "language_certification"},
	{"SoftSkillCertification", "soft_skill_certification"},
	{"AadhaarCard", "aadhaar_card"},
	{"PanCard", "pan_card"},
	{"Passport", "passport"},
	{"DrivingLicense", "driving_license"},
	{"LinkedinURL", "linkedin_url"},
	{"GithubURL", "github_url"},
	{"PortfolioWebsite", "portfolio_website"},
	{SlotResume, "resume"},
	{"OfferLetter", "offer_letter"},
	{"PersonalStatement", "personal_statement"},
}

// LookupSlot finds a slot by its name or by its column name.
func LookupSlot(name string) (Slot, bool) {
	for _, s := range Slots {
		if s.Name == name || s.Column == name {
			return s, true
		}
	}
	return Slot{}, false
}

// MemberDocuments is the per-member document store. One row per card number.
type MemberDocuments struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	CardNumber string `gorm:"type:varchar(16);not null;uniqueIndex" json:"card_number"`

	TenthCertificate       string `gorm:"type:text" json:"tenth_certificate"`
	TwelfthCertificate     string `gorm:"type:text" json:"twelfth_certificate"`
	GraduationCertificate  string `gorm:"type:text" json:"graduation_certificate"`
	PGCertificate          string `gorm:"column:pg_certificate;type:text" json:"pg_certificate"`
	GraduationMarksheet    string `gorm:"type:text" json:"graduation_marksheet"`
	TechnicalCertification string `gorm:"type:text" json:"technical_certification"`
	LanguageCertification  string `gorm:"type:text" json:"language_certification"`
	SoftSkillCertification string `gorm:"type:text" json:"soft_skill_certification"`
	AadhaarCard            string `gorm:"type:text" json:"aadhaar_card"`
	PanCard                string `gorm:"type:text" json:"pan_card"`
	Passport               string `gorm:"type:text" json:"passport"`
	DrivingLicense         string `gorm:"type:text" json:"driving_license"`
	LinkedinURL            string `gorm:"column:linkedin_url;type:text" json:"linkedin_url"`
	GithubURL              string `gorm:"column:github_url;type:text" json:"github_url"`
	PortfolioWebsite       string `gorm:"type:text" json:"portfolio_website"`
	Resume                 string `gorm:"type:text" json:"resume"`
	OfferLetter            string `gorm:"type:text" json:"offer_letter"`
	PersonalStatement      string `gorm:"type:text" json:"personal_statement"`

	DocumentStatus datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"document_status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TableName pins the table name
func (MemberDocuments) TableName() string {
	return "member_documents"
}

// Values returns every slot value keyed by slot name.
func (d *MemberDocuments) Values() map[string]string {
	return map[string]string{
		"TenthCertificate":       d.TenthCertificate,
		"TwelfthCertificate":     d.TwelfthCertificate,
		"GraduationCertificate":  d.GraduationCertificate,
		"PGCertificate":          d.PGCertificate,
		"GraduationMarksheet":    d.GraduationMarksheet,
		"TechnicalCertification": d.TechnicalCertification,
		"LanguageCertification":  d.LanguageCertification,
		"SoftSkillCertification": d.SoftSkillCertification,
		"AadhaarCard":            d.AadhaarCard,
		"PanCard":                d.PanCard,
		"Passport":               d.Passport,
		"DrivingLicense":         d.DrivingLicense,
		"LinkedinURL":            d.LinkedinURL,
		"GithubURL":              d.GithubURL,
		"PortfolioWebsite":       d.PortfolioWebsite,
		SlotResume:               d.Resume,
		"OfferLetter":            d.OfferLetter,
		"PersonalStatement":      d.PersonalStatement,
	}
}

// StatusOf returns the verification status of a slot, pending when absent.
func (d *MemberDocuments) StatusOf(slot string) string {
	return StatusFrom(d.DocumentStatus, slot)
}

// HasResume reports whether a non-empty resume is on file.
func (d *MemberDocuments) HasResume() bool {
	return d != nil && strings.TrimSpace(d.Resume) != ""
}

// StatusFrom reads a slot status out of a JSON status map.
func StatusFrom(m datatypes.JSONMap, slot string) string {
	if m == nil {
		return DocumentStatusPending
	}
	if s, ok := m[slot].(string); ok && s != "" {
		return s
	}
	return DocumentStatusPending
}

// PendingStatuses builds a status map with every given slot set to pending.
func PendingStatuses(slots []string) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	for _, s := range slots {
		m[s] = DocumentStatusPending
	}
	return m
}

// AllSlotNames returns the name of every slot in table order.
func AllSlotNames() []string {
	names := make([]string, 0, len(Slots))
	for _, s := range Slots {
		names = append(names, s.Name)
	}
	return names
}

// DisplayName derives a short label from a stored artifact reference:
// the final path segment, cut to its last 15 characters.
func DisplayName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	base := path.Base(strings.TrimRight(ref, "/"))
	if base == "." || base == "/" {
		return ""
	}
	r := []rune(base)
	if len(r) > 15 {
		r = r[len(r)-15:]
	}
	return string(r)
}

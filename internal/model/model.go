// Package model defines domain entities used by services and repositories.
package model

import (
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cardvault/internal/errs"
)

// Account is a sign-in identity. Profiles and cards hang off Account.ID.
type Account struct {
	ID         uuid.UUID
	Email      string // unique, lower-cased
	PwdHash    string // encoded argon2id hash
	SessionGen int64  // bumped on sign-out; tokens carry the generation they were issued for
	CreatedAt  time.Time
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Account     Account
}

// CardFields is the owner-editable attribute set of a card.
type CardFields struct {
	FullName string
	Company  string
	JobTitle string
	Email    string
	Phone    string
	Website  string
	Socials  string
	Tags     []string
	FrontURL string
	BackURL  string
}

// Validate checks the invariants every stored card must satisfy.
func (f CardFields) Validate() error {
	if strings.TrimSpace(f.FullName) == "" {
		return errs.Validation("full name is required")
	}
	for _, ref := range []string{f.FrontURL, f.BackURL} {
		if err := CheckImageRef(ref); err != nil {
			return err
		}
	}
	return nil
}

// CheckImageRef accepts an empty reference or an absolute http(s) URL.
func CheckImageRef(ref string) error {
	if ref == "" {
		return nil
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.Validation("image reference must be an http(s) URL")
	}
	return nil
}

// Card is a stored business card.
type Card struct {
	ID      uuid.UUID // storage key, never part of a share link
	ShareID string    // public token used in links and QR codes
	OwnerID uuid.UUID
	CardFields
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// CardPatch is a partial card update; nil fields are left untouched.
type CardPatch struct {
	FullName *string
	Company  *string
	JobTitle *string
	Email    *string
	Phone    *string
	Website  *string
	Socials  *string
	Tags     *[]string
	FrontURL *string
	BackURL  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p CardPatch) IsEmpty() bool {
	return p.FullName == nil && p.Company == nil && p.JobTitle == nil && p.Email == nil &&
		p.Phone == nil && p.Website == nil && p.Socials == nil && p.Tags == nil &&
		p.FrontURL == nil && p.BackURL == nil
}

// Apply returns f with the non-nil patch fields merged in.
func (p CardPatch) Apply(f CardFields) CardFields {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&f.FullName, p.FullName)
	set(&f.Company, p.Company)
	set(&f.JobTitle, p.JobTitle)
	set(&f.Email, p.Email)
	set(&f.Phone, p.Phone)
	set(&f.Website, p.Website)
	set(&f.Socials, p.Socials)
	set(&f.FrontURL, p.FrontURL)
	set(&f.BackURL, p.BackURL)
	if p.Tags != nil {
		f.Tags = append([]string(nil), (*p.Tags)...)
	}
	return f
}

// Validate rejects patches that would break card invariants.
func (p CardPatch) Validate() error {
	probe := CardFields{FullName: "-"}
	if p.FullName != nil {
		probe.FullName = *p.FullName
	}
	if p.FrontURL != nil {
		probe.FrontURL = *p.FrontURL
	}
	if p.BackURL != nil {
		probe.BackURL = *p.BackURL
	}
	return probe.Validate()
}

// NormalizeTags trims tags and drops empty entries.
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Profile is the display identity of an account, separate from card data.
type Profile struct {
	AccountID uuid.UUID
	Name      string
	Company   string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	Name     *string
	Company  *string
	PhotoURL *string
}

// Upload is a file handed to object storage.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64 // -1 when unknown
	Body        io.Reader
}

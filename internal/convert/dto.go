// Package convert maps domain models to the JSON wire shapes of the HTTP API and back.
package convert

import "time"

// PublicCardDTO is what anyone holding a share link sees. It never carries
// the storage key or the owner.
type PublicCardDTO struct {
	ShareID   string     `json:"shareId"`
	ShareURL  string     `json:"shareUrl,omitempty"`
	FullName  string     `json:"fullName"`
	Company   string     `json:"company"`
	JobTitle  string     `json:"jobTitle"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Website   string     `json:"website"`
	Socials   string     `json:"socials"`
	Tags      []string   `json:"tags"`
	FrontURL  string     `json:"frontUrl"`
	BackURL   string     `json:"backUrl"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// CardDTO is the owner's view of a card.
type CardDTO struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	PublicCardDTO
}

// CardPatchDTO is a partial update; absent keys stay untouched.
type CardPatchDTO struct {
	FullName *string   `json:"fullName,omitempty"`
	Company  *string   `json:"company,omitempty"`
	JobTitle *string   `json:"jobTitle,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Website  *string   `json:"website,omitempty"`
	Socials  *string   `json:"socials,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	FrontURL *string   `json:"frontUrl,omitempty"`
	BackURL  *string   `json:"backUrl,omitempty"`
}

type AccountDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionDTO struct {
	AccessToken string     `json:"accessToken"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	Account     AccountDTO `json:"account"`
}

type ProfileDTO struct {
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	PhotoURL  string    `json:"photoURL"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProfilePatchDTO struct {
	Name     *string `json:"name,omitempty"`
	Company  *string `json:"company,omitempty"`
	PhotoURL *string `json:"photoURL,omitempty"`
}

type SignUpRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required"`
	Name     *string `json:"name,omitempty"`
	Company  *string `json:"company,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ScanRequest struct {
	Text string `json:"text"`
}

// ScanResponse reports the share id read from a scan and, when it resolves, the card.
type ScanResponse struct {
	ShareID string         `json:"shareId"`
	Found   bool           `json:"found"`
	Card    *PublicCardDTO `json:"card,omitempty"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}

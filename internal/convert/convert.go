package convert

import (
	"fmt"

	u "github.com/gofrs/uuid/v5"

	model "github.com/and161185/cardvault/internal/model"
)

func tags(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

// ToPublicCard strips owner data. shareURL may be empty.
func ToPublicCard(c model.Card, shareURL string) PublicCardDTO {
	return PublicCardDTO{
		ShareID:   c.ShareID,
		ShareURL:  shareURL,
		FullName:  c.FullName,
		Company:   c.Company,
		JobTitle:  c.JobTitle,
		Email:     c.Email,
		Phone:     c.Phone,
		Website:   c.Website,
		Socials:   c.Socials,
		Tags:      tags(c.Tags),
		FrontURL:  c.FrontURL,
		BackURL:   c.BackURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCard converts a stored card for its owner.
func ToCard(c model.Card, shareURL string) CardDTO {
	return CardDTO{ID: c.ID.String(), OwnerID: c.OwnerID.String(), PublicCardDTO: ToPublicCard(c, shareURL)}
}

// ToCards converts a list, keeping order. link builds the share URL per card.
func ToCards(cs []model.Card, link func(string) string) []CardDTO {
	out := make([]CardDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToCard(c, link(c.ShareID)))
	}
	return out
}

func fieldsFromPublic(p PublicCardDTO) model.CardFields {
	return model.CardFields{
		FullName: p.FullName,
		Company:  p.Company,
		JobTitle: p.JobTitle,
		Email:    p.Email,
		Phone:    p.Phone,
		Website:  p.Website,
		Socials:  p.Socials,
		Tags:     tags(p.Tags),
		FrontURL: p.FrontURL,
		BackURL:  p.BackURL,
	}
}

// FromPublicCard converts a public view back; ID and OwnerID stay zero.
func FromPublicCard(p PublicCardDTO) model.Card {
	return model.Card{ShareID: p.ShareID, CardFields: fieldsFromPublic(p), CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

// FromCard converts an owner card DTO into the domain model.
func FromCard(d CardDTO) (model.Card, error) {
	var id, owner u.UUID
	if err := id.UnmarshalText([]byte(d.ID)); err != nil {
		return model.Card{}, fmt.Errorf("invalid id: %w", err)
	}
	if err := owner.UnmarshalText([]byte(d.OwnerID)); err != nil {
		return model.Card{}, fmt.Errorf("invalid ownerId: %w", err)
	}
	c := FromPublicCard(d.PublicCardDTO)
	c.ID, c.OwnerID = id, owner
	return c, nil
}

// FromCardPatch converts the wire patch.
func FromCardPatch(p CardPatchDTO) model.CardPatch {
	return model.CardPatch{
		FullName: p.FullName,
		Company:  p.Company,
		JobTitle: p.JobTitle,
		Email:    p.Email,
		Phone:    p.Phone,
		Website:  p.Website,
		Socials:  p.Socials,
		Tags:     p.Tags,
		FrontURL: p.FrontURL,
		BackURL:  p.BackURL,
	}
}

// ToAccount omits credentials.
func ToAccount(a model.Account) AccountDTO {
	return AccountDTO{ID: a.ID.String(), Email: a.Email, CreatedAt: a.CreatedAt}
}

func FromAccount(d AccountDTO) (model.Account, error) {
	var id u.UUID
	if err := id.UnmarshalText([]byte(d.ID)); err != nil {
		return model.Account{}, fmt.Errorf("invalid id: %w", err)
	}
	return model.Account{ID: id, Email: d.Email, CreatedAt: d.CreatedAt}, nil
}

func ToSession(s model.Session) SessionDTO {
	return SessionDTO{AccessToken: s.AccessToken, ExpiresAt: s.ExpiresAt, Account: ToAccount(s.Account)}
}

func FromSession(d SessionDTO) (model.Session, error) {
	a, err := FromAccount(d.Account)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{AccessToken: d.AccessToken, ExpiresAt: d.ExpiresAt, Account: a}, nil
}

func ToProfile(p model.Profile) ProfileDTO {
	return ProfileDTO{Name: p.Name, Company: p.Company, PhotoURL: p.PhotoURL, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func FromProfile(accountID u.UUID, d ProfileDTO) model.Profile {
	return model.Profile{AccountID: accountID, Name: d.Name, Company: d.Company, PhotoURL: d.PhotoURL, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func FromProfilePatch(p ProfilePatchDTO) model.ProfilePatch {
	return model.ProfilePatch{Name: p.Name, Company: p.Company, PhotoURL: p.PhotoURL}
}

func ToProfilePatch(p model.ProfilePatch) ProfilePatchDTO {
	return ProfilePatchDTO{Name: p.Name, Company: p.Company, PhotoURL: p.PhotoURL}
}

func ToCardPatch(p model.CardPatch) CardPatchDTO {
	return CardPatchDTO{
		FullName: p.FullName,
		Company:  p.Company,
		JobTitle: p.JobTitle,
		Email:    p.Email,
		Phone:    p.Phone,
		Website:  p.Website,
		Socials:  p.Socials,
		Tags:     p.Tags,
		FrontURL: p.FrontURL,
		BackURL:  p.BackURL,
	}
}

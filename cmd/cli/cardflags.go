package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/and161185/cardvault/internal/client"
	"github.com/and161185/cardvault/internal/convert"
)

// cardFlags binds the editable card fields to a command.
type cardFlags struct {
	fullName, company, jobTitle string
	email, phone, website       string
	socials                     string
	tags                        []string
}

// flag name -> target, shared by add and edit
func (f *cardFlags) fields() map[string]*string {
	return map[string]*string{
		"full-name": &f.fullName,
		"company":   &f.company,
		"job-title": &f.jobTitle,
		"email":     &f.email,
		"phone":     &f.phone,
		"website":   &f.website,
		"socials":   &f.socials,
	}
}

func (f *cardFlags) bind(fs *pflag.FlagSet) {
	for name, dst := range f.fields() {
		fs.StringVar(dst, name, "", strings.ReplaceAll(name, "-", " "))
	}
	fs.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable or comma-separated)")
}

func (f *cardFlags) newCard() client.NewCard {
	return client.NewCard{
		FullName: f.fullName, Company: f.company, JobTitle: f.jobTitle,
		Email: f.email, Phone: f.phone, Website: f.website, Socials: f.socials,
		Tags: f.tags,
	}
}

// patch carries only the flags that were set, so "--company ''" clears a field
// while an absent flag leaves it untouched.
func (f *cardFlags) patch(fs *pflag.FlagSet) convert.CardPatchDTO {
	var p convert.CardPatchDTO
	targets := map[string]**string{
		"full-name": &p.FullName, "company": &p.Company, "job-title": &p.JobTitle,
		"email": &p.Email, "phone": &p.Phone, "website": &p.Website, "socials": &p.Socials,
	}
	for name, src := range f.fields() {
		if fs.Changed(name) {
			v := *src
			*targets[name] = &v
		}
	}
	if fs.Changed("tag") {
		tags := append([]string{}, f.tags...)
		p.Tags = &tags
	}
	return p
}

func isEmptyPatch(p convert.CardPatchDTO) bool {
	return p == (convert.CardPatchDTO{})
}

// openUpload reads a local image, or stdin for "-".
func openUpload(cmd *cobra.Command, path string) (*client.File, error) {
	if path == "" {
		return nil, nil
	}
	b, err := readAll(cmd.InOrStdin(), path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	if path == "-" {
		name = "stdin"
	}
	return &client.File{Name: name, Body: bytes.NewReader(b)}, nil
}

func printCard(w io.Writer, c convert.PublicCardDTO) {
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-9s %s\n", k+":", v)
		}
	}
	line("name", c.FullName)
	line("company", c.Company)
	line("title", c.JobTitle)
	line("email", c.Email)
	line("phone", c.Phone)
	line("website", c.Website)
	line("socials", c.Socials)
	line("tags", strings.Join(c.Tags, ", "))
	line("front", c.FrontURL)
	line("back", c.BackURL)
	line("link", c.ShareURL)
}

func printCardRows(w io.Writer, cards []convert.CardDTO) {
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.ShareID, c.FullName, c.Company, strings.Join(c.Tags, ","))
	}
}

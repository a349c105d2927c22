package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cardvault/internal/catalog"
	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/model"
)

func (s *Server) cardID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		// malformed keys cannot name a card
		s.fail(c, errs.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) listCards(c *gin.Context) {
	list, err := s.Cards.List(c.Request.Context(), account(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToCards(catalog.Filter(list, c.Query("q")), s.Share.Link))
}

func (s *Server) createCard(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxUpload)
	if err := c.Request.ParseMultipartForm(s.MaxUpload); err != nil {
		s.fail(c, errs.Validation("expected multipart form with card fields and images"))
		return
	}
	f := model.CardFields{
		FullName: c.PostForm("fullName"),
		Company:  c.PostForm("company"),
		JobTitle: c.PostForm("jobTitle"),
		Email:    c.PostForm("email"),
		Phone:    c.PostForm("phone"),
		Website:  c.PostForm("website"),
		Socials:  c.PostForm("socials"),
		Tags:     splitTags(c.PostFormArray("tags")),
	}

	front, closeFront, err := formUpload(c, "front")
	if err != nil {
		s.fail(c, err)
		return
	}
	defer closeFront()
	back, closeBack, err := formUpload(c, "back")
	if err != nil {
		s.fail(c, err)
		return
	}
	defer closeBack()

	card, err := s.Cards.Create(c.Request.Context(), account(c).ID, f, front, back)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToCard(card, s.Share.Link(card.ShareID)))
}

// splitTags accepts repeated fields and comma separated lists.
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return model.NormalizeTags(out)
}

// formUpload opens an optional multipart file. A missing field yields nil.
func formUpload(c *gin.Context, field string) (*model.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, errs.Validation("bad " + field + " file")
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*model.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &model.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func (s *Server) getCard(c *gin.Context) {
	id, ok := s.cardID(c)
	if !ok {
		return
	}
	card, err := s.Cards.Get(c.Request.Context(), account(c).ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToCard(card, s.Share.Link(card.ShareID)))
}

func (s *Server) updateCard(c *gin.Context) {
	id, ok := s.cardID(c)
	if !ok {
		return
	}
	var req convert.CardPatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("malformed request body"))
		return
	}
	card, err := s.Cards.Update(c.Request.Context(), account(c).ID, id, convert.FromCardPatch(req))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToCard(card, s.Share.Link(card.ShareID)))
}

func (s *Server) deleteCard(c *gin.Context) {
	id, ok := s.cardID(c)
	if !ok {
		return
	}
	if err := s.Cards.Delete(c.Request.Context(), account(c).ID, id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) cardQR(c *gin.Context) {
	id, ok := s.cardID(c)
	if !ok {
		return
	}
	card, err := s.Cards.Get(c.Request.Context(), account(c).ID, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeQR(c, s.Share.Link(card.ShareID))
}

func (s *Server) writeQR(c *gin.Context, text string) {
	png, err := s.Codec.Encode(text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}

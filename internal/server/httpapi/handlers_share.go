package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/errs"
	"github.com/and161185/cardvault/internal/qr"
)

func (s *Server) publicCard(c *gin.Context) {
	shareID := c.Param("shareId")
	card, found, err := s.Share.Resolve(c.Request.Context(), shareID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	c.JSON(http.StatusOK, convert.ToPublicCard(card, s.Share.Link(card.ShareID)))
}

func (s *Server) publicQR(c *gin.Context) {
	_, found, err := s.Share.Resolve(c.Request.Context(), c.Param("shareId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	s.writeQR(c, s.Share.Link(c.Param("shareId")))
}

func (s *Server) saveCard(c *gin.Context) {
	card, err := s.Share.Clone(c.Request.Context(), c.Param("shareId"), account(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToCard(card, s.Share.Link(card.ShareID)))
}

// scan accepts {"text": ...} or a multipart "image" holding a QR photo.
func (s *Server) scan(c *gin.Context) {
	var raw string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxUpload)
		up, done, err := formUpload(c, "image")
		if err != nil {
			s.fail(c, err)
			return
		}
		defer done()
		if up == nil {
			s.fail(c, errs.Validation("image is required"))
			return
		}
		raw, err = s.Codec.DecodeImage(up.Body)
		if err != nil {
			s.fail(c, errs.Validation(err.Error()))
			return
		}
	} else {
		var req convert.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, errs.Validation("malformed request body"))
			return
		}
		raw = req.Text
	}

	shareID := qr.ParseScan(raw)
	if shareID == "" {
		s.fail(c, errs.Validation("nothing scanned"))
		return
	}
	resp := convert.ScanResponse{ShareID: shareID}
	card, found, err := s.Share.Resolve(c.Request.Context(), shareID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if found {
		pub := convert.ToPublicCard(card, s.Share.Link(card.ShareID))
		resp.Found, resp.Card = true, &pub
	}
	c.JSON(http.StatusOK, resp)
}

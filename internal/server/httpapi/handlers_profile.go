package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/errs"
)

func (s *Server) getProfile(c *gin.Context) {
	p, err := s.Profiles.Get(c.Request.Context(), account(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToProfile(p))
}

func (s *Server) updateProfile(c *gin.Context) {
	var req convert.ProfilePatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, errs.Validation("malformed request body"))
		return
	}
	p, err := s.Profiles.Update(c.Request.Context(), account(c).ID, convert.FromProfilePatch(req))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToProfile(p))
}

func (s *Server) uploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxUpload)
	up, done, err := formUpload(c, "photo")
	if err != nil {
		s.fail(c, err)
		return
	}
	defer done()
	if up == nil {
		s.fail(c, errs.Validation("photo is required"))
		return
	}
	p, err := s.Profiles.UploadPhoto(c.Request.Context(), account(c).ID, *up)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToProfile(p))
}

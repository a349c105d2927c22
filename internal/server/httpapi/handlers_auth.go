package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/and161185/cardvault/internal/convert"
	"github.com/and161185/cardvault/internal/model"
)

func (s *Server) signUp(c *gin.Context) {
	var req convert.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err))
		return
	}
	sess, err := s.Auth.SignUp(c.Request.Context(), req.Email, req.Password, model.ProfilePatch{Name: req.Name, Company: req.Company})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, convert.ToSession(sess))
}

func (s *Server) signIn(c *gin.Context) {
	var req convert.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err))
		return
	}
	sess, err := s.Auth.SignIn(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convert.ToSession(sess))
}

func (s *Server) signOut(c *gin.Context) {
	if err := s.Auth.SignOut(c.Request.Context(), account(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, convert.ToAccount(account(c)))
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/psychometric/internal/assessment"
)

type categoryResponse struct {
	ID    assessment.Category `json:"id"`
	Label string              `json:"label"`
}

func (s *Server) handleVoices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"voices":  assessment.AllVoices,
		"default": assessment.DefaultVoice,
	})
}

func (s *Server) handleCategories(c *gin.Context) {
	out := make([]categoryResponse, 0, len(assessment.AllCategories))
	for _, cat := range assessment.AllCategories {
		out = append(out, categoryResponse{ID: cat, Label: cat.Label()})
	}
	c.JSON(http.StatusOK, out)
}

// handleListQuestions returns the pool new sessions draw from: the built-in
// questions followed by the bank.
func (s *Server) handleListQuestions(c *gin.Context) {
	pool, err := s.opts.Bank.Pool(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

func (s *Server) handleAddQuestion(c *gin.Context) {
	var q assessment.Question
	if err := c.ShouldBindJSON(&q); err != nil {
		s.badRequest(c, err)
		return
	}
	added, err := s.opts.Bank.Add(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/psychometric/internal/assessment"
	"github.com/abhisek/psychometric/internal/audio"
	"github.com/abhisek/psychometric/internal/radar"
	"github.com/abhisek/psychometric/internal/session"
)

type answerRequest struct {
	Option string `json:"option" binding:"required"`
	// QuestionID, when set, must name the current question.
	QuestionID string `json:"questionId"`
}

type insertRequest struct {
	Category string `json:"category" binding:"required"`
}

type speechRequest struct {
	Voice string `json:"voice"`
}

type voiceResponse struct {
	Selection assessment.Label `json:"selection"`
	Session   session.Snapshot `json:"session"`
}

type replaceResponse struct {
	Question assessment.Question `json:"question"`
	Session  session.Snapshot    `json:"session"`
}

type reportResponse struct {
	Report assessment.Report `json:"report"`
	Radar  radar.Chart       `json:"radar"`
}

// withSession resolves the :id parameter before calling h.
func (s *Server) withSession(h func(*gin.Context, *session.Controller)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, err := s.opts.Sessions.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			s.fail(c, err)
			return
		}
		h(c, ctrl)
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var profile assessment.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		s.badRequest(c, err)
		return
	}
	ctrl, err := s.opts.Sessions.Create(c.Request.Context(), profile)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("session created", "session", ctrl.ID())
	c.JSON(http.StatusCreated, ctrl.Snapshot())
}

func (s *Server) handleGetSession(c *gin.Context, ctrl *session.Controller) {
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleResetSession(c *gin.Context) {
	if err := s.opts.Sessions.Reset(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAnswer(c *gin.Context, ctrl *session.Controller) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	label, ok := assessment.ParseLabel(req.Option)
	if !ok {
		s.fail(c, assessment.NewValidationError("option", "must be one of A, B, C, D, E"))
		return
	}
	if req.QuestionID != "" {
		if cur := ctrl.Snapshot().Current; cur != nil && cur.ID != req.QuestionID {
			s.fail(c, session.ErrStaleResponse)
			return
		}
	}
	if err := ctrl.SubmitAnswer(c.Request.Context(), label); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleSkip(c *gin.Context, ctrl *session.Controller) {
	if err := ctrl.Skip(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleReplace(c *gin.Context, ctrl *session.Controller) {
	q, err := ctrl.Replace(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, replaceResponse{Question: q, Session: ctrl.Snapshot()})
}

func (s *Server) handleInsertQuestion(c *gin.Context, ctrl *session.Controller) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	category, err := assessment.ParseCategory(req.Category)
	if err != nil {
		s.fail(c, assessment.NewValidationError("category", err.Error()))
		return
	}
	q, err := ctrl.InsertQuestion(c.Request.Context(), category)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, replaceResponse{Question: q, Session: ctrl.Snapshot()})
}

func (s *Server) handleSpeech(c *gin.Context, ctrl *session.Controller) {
	var req speechRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}
	var voice assessment.Voice
	if req.Voice != "" {
		v, err := assessment.ParseVoice(req.Voice)
		if err != nil {
			s.fail(c, assessment.NewValidationError("voice", err.Error()))
			return
		}
		voice = v
	}
	out, err := ctrl.RequestSpeech(c.Request.Context(), voice)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, out.MIMEType, out.Data)
}

// handleVoice treats the request body as the recording. The upload ends
// the capture, so no stop signal is needed.
func (s *Server) handleVoice(c *gin.Context, ctrl *session.Controller) {
	mimeType := c.ContentType()
	if mimeType == "" {
		mimeType = audio.DefaultMIMEType
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxAudioBytes)
	dev := audio.NewReaderDevice("upload", mimeType, body)

	label, err := ctrl.RecordVoiceAnswer(c.Request.Context(), dev, nil)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, voiceResponse{Selection: label, Session: ctrl.Snapshot()})
}

func (s *Server) handleFinish(c *gin.Context, ctrl *session.Controller) {
	report, err := ctrl.Finish(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reportResponse{
		Report: *report,
		Radar:  radar.Project(report.Traits, radar.DefaultConfig()),
	})
}

func (s *Server) handleReport(c *gin.Context, ctrl *session.Controller) {
	report := ctrl.Report()
	if report == nil {
		s.fail(c, session.ErrNotComplete)
		return
	}
	c.JSON(http.StatusOK, reportResponse{
		Report: *report,
		Radar:  radar.Project(report.Traits, radar.DefaultConfig()),
	})
}

func (s *Server) handleRadarSVG(c *gin.Context, ctrl *session.Controller) {
	report := ctrl.Report()
	if report == nil {
		s.fail(c, session.ErrNotComplete)
		return
	}
	var buf bytes.Buffer
	if err := radar.Project(report.Traits, radar.DefaultConfig()).WriteSVG(&buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/alexanderramin/coursechat/internal/domain"
	"github.com/alexanderramin/coursechat/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultAnalyticsLimit = 100

func (s *Server) health(c *gin.Context) {
	st := s.deps.Courses.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"courses":   st.Courses,
		"loaded_at": st.LoadedAt,
		"sessions":  s.sessions.len(),
	})
}

// POST /api/sessions
func (s *Server) createSession(c *gin.Context) {
	conv, err := s.deps.Chat.Start(c.Request.Context(), ClientTag)
	if err != nil {
		writeError(c, err)
		return
	}
	id := s.sessions.add(conv)
	c.JSON(http.StatusCreated, SessionResponse{SessionID: id, Greeting: s.opts.Greeting})
}

// POST /api/sessions/:id/messages
func (s *Server) sendMessage(c *gin.Context) {
	conv, ok := s.sessions.get(c.Param("id"))
	if !ok {
		notFound(c, "unknown session")
		return
	}
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	res, err := s.deps.Chat.Send(c.Request.Context(), conv, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Reply:                 res.Reply.Reply,
		SuggestedCourseIDs:    res.Reply.SuggestedCourseIDs,
		DisambiguationOptions: res.Reply.DisambiguationOptions,
		Cards:                 toCards(res.Cards),
	})
}

// POST /api/sessions/:id/restart
func (s *Server) restartSession(c *gin.Context) {
	conv, ok := s.sessions.get(c.Param("id"))
	if !ok {
		notFound(c, "unknown session")
		return
	}
	if err := s.deps.Chat.Restart(c.Request.Context(), conv, ClientTag); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: c.Param("id"), Greeting: s.opts.Greeting})
}

// POST /api/sessions/:id/conversion records a booking-link click.
func (s *Server) recordConversion(c *gin.Context) {
	conv, ok := s.sessions.get(c.Param("id"))
	if !ok {
		notFound(c, "unknown session")
		return
	}
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := s.deps.Analytics.RecordConversion(c.Request.Context(), conv.Session(), req.Course); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/sessions/:id
func (s *Server) endSession(c *gin.Context) {
	conv, ok := s.sessions.remove(c.Param("id"))
	if !ok {
		notFound(c, "unknown session")
		return
	}
	if err := s.deps.Chat.End(c.Request.Context(), conv); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/courses?limit=n
func (s *Server) listCourses(c *gin.Context) {
	courses := s.deps.Courses.List(c.Request.Context())
	total := len(courses)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		if n > 0 && n < len(courses) {
			courses = courses[:n]
		}
	}
	c.JSON(http.StatusOK, gin.H{"courses": toCards(courses), "total": total})
}

// GET /api/search?query=&location=&dateStart=&dateEnd=&expand=
func (s *Server) searchCourses(c *gin.Context) {
	var p SearchParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := s.deps.Courses.Search(c.Request.Context(), service.SearchQuery{
		SearchCriteria: domain.SearchCriteria{
			Query:     p.Query,
			Location:  p.Location,
			DateStart: p.DateStart,
			DateEnd:   p.DateEnd,
		},
		ExpandRegions: p.Expand,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/details/:course
func (s *Server) courseDetails(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Courses.Details(c.Request.Context(), c.Param("course")))
}

// GET /api/admin/analytics?limit=n
func (s *Server) showAnalytics(c *gin.Context) {
	limit := defaultAnalyticsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	ctx := c.Request.Context()
	stats, err := s.deps.Analytics.Stats(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	sessions, err := s.deps.Analytics.Sessions(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.AnalyticsSession{}
	}
	c.JSON(http.StatusOK, AnalyticsResponse{Stats: stats, Sessions: sessions})
}

// DELETE /api/admin/analytics
func (s *Server) clearAnalytics(c *gin.Context) {
	if err := s.deps.Analytics.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/admin/catalog/refresh
func (s *Server) refreshCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Courses.Refresh(c.Request.Context()))
}

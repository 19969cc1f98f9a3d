package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ptscope/ptscope/pkg/analytics"
	"github.com/ptscope/ptscope/pkg/offline"
)

// sortColumns maps the query-level sort fields onto columns. The empty
// field is the service default.
var sortColumns = map[string]string{
	"":           "pts",
	"pts":        "pts",
	"enrollment": "enrollment",
	"duration":   "duration_days",
	"sponsor":    "sponsor",
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// listTrials answers GET /api/trials with filter, search and sort applied
// in the database.
func (s *Server) listTrials(c *gin.Context) {
	col, ok := sortColumns[c.Query("sort")]
	if !ok {
		fail(c, http.StatusBadRequest, "unknown sort field")
		return
	}
	dir := "DESC"
	switch c.Query("order") {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		fail(c, http.StatusBadRequest, "unknown sort order")
		return
	}

	q := s.db.Model(&trialRecord{})
	filters := c.QueryMap("filter")
	if area := filters["therapeuticArea"]; area != "" {
		q = q.Where("LOWER(therapeutic_area) = LOWER(?)", area)
	}
	if status := filters["status"]; status != "" {
		q = q.Where("LOWER(status) = LOWER(?)", status)
	}
	if sponsor := filters["sponsor"]; sponsor != "" {
		q = q.Where("LOWER(sponsor) = LOWER(?)", sponsor)
	}
	if search := c.Query("search"); search != "" {
		pat := "%" + search + "%"
		q = q.Where("id LIKE ? OR title LIKE ? OR sponsor LIKE ? OR therapeutic_area LIKE ?", pat, pat, pat, pat)
	}

	var recs []trialRecord
	if err := q.Order(col + " " + dir).Order("id ASC").Find(&recs).Error; err != nil {
		s.log.Error().Err(err).Msg("listing trials")
		fail(c, http.StatusInternalServerError, "listing trials failed")
		return
	}
	respond(c, toTrials(recs))
}

// trialExplanation answers GET /api/trials/:id/shap. The attribution comes
// from the same synthesizer the offline source uses, with the portfolio
// mean PTS as the base value.
func (s *Server) trialExplanation(c *gin.Context) {
	id := c.Param("id")

	var rec trialRecord
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "trial not found")
			return
		}
		s.log.Error().Err(err).Str("trial", id).Msg("loading trial")
		fail(c, http.StatusInternalServerError, "loading trial failed")
		return
	}

	var base float64
	if err := s.db.Model(&trialRecord{}).Select("COALESCE(AVG(pts), 50)").Scan(&base).Error; err != nil {
		s.log.Error().Err(err).Msg("computing base value")
		fail(c, http.StatusInternalServerError, "computing base value failed")
		return
	}

	respond(c, offline.Synthesize(rec.toTrial(), base))
}

// trialAnalytics answers GET /api/trials/analytics with a snapshot built
// over the full portfolio.
func (s *Server) trialAnalytics(c *gin.Context) {
	trials, err := s.allTrials()
	if err != nil {
		s.log.Error().Err(err).Msg("building analytics")
		fail(c, http.StatusInternalServerError, "building analytics failed")
		return
	}
	respond(c, analytics.BuildSnapshot(trials, analytics.DefaultThresholds))
}

type chatBody struct {
	Message string `json:"message"`
}

// chat answers POST /api/chat through the canned responder over the stored
// trials.
func (s *Server) chat(c *gin.Context) {
	var body chatBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		fail(c, http.StatusBadRequest, "empty message")
		return
	}

	trials, err := s.allTrials()
	if err != nil {
		s.log.Error().Err(err).Msg("loading chat context")
		fail(c, http.StatusInternalServerError, "loading chat context failed")
		return
	}

	resp, err := s.responder.Respond(c.Request.Context(), body.Message, trials)
	if err != nil {
		s.log.Error().Err(err).Msg("answering chat")
		fail(c, http.StatusInternalServerError, "answering chat failed")
		return
	}
	respond(c, resp)
}

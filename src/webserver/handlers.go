package webserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moltbook/observatory/src/council"
	"github.com/moltbook/observatory/src/data"
	"github.com/moltbook/observatory/src/publication"
)

// AuditReader is the read-only slice of the store used by monitoring routes.
type AuditReader interface {
	HealthStats(ctx context.Context) (data.HealthStats, error)
	FindUnreviewedPublished(ctx context.Context) ([]publication.Publication, error)
}

type Publications struct {
	coordinator *publication.Coordinator
	panel       *council.Council
	audit       AuditReader
}

func NewPublications(coordinator *publication.Coordinator, panel *council.Council, audit AuditReader) Publications {
	return Publications{coordinator: coordinator, panel: panel, audit: audit}
}

func (p Publications) Submit(c *gin.Context) {
	var req struct {
		Title    string   `json:"title" binding:"required"`
		Content  string   `json:"content" binding:"required"`
		Category string   `json:"category"`
		Targets  []string `json:"targets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id, err := p.coordinator.Submit(c.Request.Context(), req.Title, req.Content, req.Category, req.Targets)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"publication_id": id})
}

func (p Publications) Review(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad publication id"})
		return
	}

	outcome, err := p.coordinator.RunDeliberation(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		case errors.Is(err, publication.ErrNotPending):
			c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (p Publications) Publish(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad publication id"})
		return
	}

	results, err := p.coordinator.Publish(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		case errors.Is(err, publication.ErrNotApproved):
			c.JSON(http.StatusConflict, gin.H{"err": err.Error()})
		case errors.Is(err, publication.ErrSafetyRejected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (p Publications) Queue(c *gin.Context) {
	queue, err := p.coordinator.Queue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

func (p Publications) ProcessQueue(c *gin.Context) {
	report, err := p.coordinator.ProcessQueue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (p Publications) SafetyCheck(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	verdict := p.panel.QuickSafetyCheck(c.Request.Context(), req.Content)
	c.JSON(http.StatusOK, verdict)
}

func (p Publications) Health(c *gin.Context) {
	stats, err := p.audit.HealthStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable", "err": err.Error()})
		return
	}
	status := "healthy"
	if stats.SecurityRejections24h > 5 {
		status = "needs_attention"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "checks": stats})
}

// Integrity reports review bypasses: published rows with no deliberation
// reference outside the marked auto-approve path.
func (p Publications) Integrity(c *gin.Context) {
	violations, err := p.audit.FindUnreviewedPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"violations": violations})
}

package api

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"lead-intake/pkg/models"
	"lead-intake/pkg/services"
)

//go:embed form.html
var formPage []byte

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	leadService services.LeadService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(leadService services.LeadService) *Handlers {
	return &Handlers{
		leadService: leadService,
	}
}

// RegisterRoutes mounts every endpoint on router
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/", h.Home)
	router.GET("/health", h.HealthCheck)
	router.GET("/form", h.Form)
	router.POST("/lead", h.CaptureLead)
	router.GET("/leads", h.ListLeads)
	router.GET("/env-check", h.EnvCheck)
	router.POST("/debug-send", h.DebugSend)
}

// Home is the liveness message
func (h *Handlers) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running!"})
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Form serves the static contact page
func (h *Handlers) Form(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", formPage)
}

// CaptureLead validates and stores a lead. Notification is queued, never awaited.
func (h *Handlers) CaptureLead(c *gin.Context) {
	var lead models.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": validationDetail(err)})
		return
	}

	if err := h.leadService.CaptureLead(c.Request.Context(), lead); err != nil {
		log.Printf("Error capturing lead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error storing lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Lead captured for %s", lead.Name),
	})
}

// ListLeads returns every stored lead, oldest first
func (h *Handlers) ListLeads(c *gin.Context) {
	leads, err := h.leadService.ListLeads(c.Request.Context())
	if err != nil {
		log.Printf("Error listing leads: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing leads"})
		return
	}
	c.JSON(http.StatusOK, models.LeadList{Total: len(leads), Data: leads})
}

// EnvCheck reports which notification settings are present without exposing them
func (h *Handlers) EnvCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.leadService.CredentialStatus())
}

// DebugSend runs a notification inline and reports the outcome
func (h *Handlers) DebugSend(c *gin.Context) {
	if err := h.leadService.SendTestNotification(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"detail": fmt.Sprintf("Notification sent via %s (check the destination)", h.leadService.Channel()),
	})
}

// validationDetail lists one entry per rejected field, or a single entry for undecodable bodies
func validationDetail(err error) []gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []gin.H{{
			"loc":  []string{"body"},
			"msg":  err.Error(),
			"type": "json_invalid",
		}}
	}

	detail := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		entry := gin.H{
			"loc":  []string{"body", strings.ToLower(fe.Field())},
			"msg":  fe.Error(),
			"type": fe.Tag(),
		}
		if fe.Tag() == "required" {
			entry["msg"] = "field required"
			entry["type"] = "missing"
		}
		detail = append(detail, entry)
	}
	return detail
}

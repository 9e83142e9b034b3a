package statushttp

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	storemodel "vectra/internal/store/model"
	"vectra/internal/strategy"
)

// StatusProvider is implemented by the strategy engine.
type StatusProvider interface {
	Status(ctx context.Context) (strategy.StatusReport, error)
}

// TradeHistory is implemented by the trade log store. Optional: history
// endpoints answer 503 when nil.
type TradeHistory interface {
	Recent(ctx context.Context, limit int) ([]storemodel.TradeEventModel, error)
	BySignal(ctx context.Context, signalID int64) ([]storemodel.TradeEventModel, error)
}

type Router struct {
	provider StatusProvider
	history  TradeHistory
}

func NewRouter(provider StatusProvider, history TradeHistory) *Router {
	return &Router{provider: provider, history: history}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/status", r.handleStatus)
	group.GET("/status/text", r.handleStatusText)
	group.GET("/positions", r.handlePositions)
	group.GET("/trades", r.handleTrades)
	group.GET("/trades/:signal_id", r.handleTradesBySignal)
}

func (r *Router) handleStatus(c *gin.Context) {
	report, err := r.provider.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleStatusText(c *gin.Context) {
	report, err := r.provider.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, strategy.FormatStatus(report))
}

func (r *Router) handlePositions(c *gin.Context) {
	report, err := r.provider.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": report.Records})
}

func (r *Router) handleTrades(c *gin.Context) {
	if r.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade log not enabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	rows, err := r.history.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": rows})
}

func (r *Router) handleTradesBySignal(c *gin.Context) {
	if r.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade log not enabled"})
		return
	}
	signalID, err := strconv.ParseInt(c.Param("signal_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signal id"})
		return
	}
	rows, err := r.history.BySignal(c.Request.Context(), signalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": rows})
}

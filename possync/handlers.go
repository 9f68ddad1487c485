package possync

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/pos_backend/models"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

func resolveStoreID(c *gin.Context) (string, error) {
	storeId := strings.TrimSpace(c.Query("store_id"))
	if storeId == "" {
		if fromCtx, ok := utils.GetStoreIdFromContext(c.Request.Context()); ok {
			storeId = strings.TrimSpace(fromCtx)
		}
	}
	if storeId == "" {
		storeId = strings.TrimSpace(os.Getenv("POS_STORE_ID"))
	}
	if storeId == "" {
		return "", errors.New("store_id is required")
	}
	return storeId, nil
}

type statusResponse struct {
	Online       bool  `json:"online"`
	FailedProbes int   `json:"failed_probes"`
	PendingItems int64 `json:"pending_items"`
	Schema       any   `json:"schema,omitempty"`
}

func StatusHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		pending, err := e.NumberOfQueuedItems(c.Request.Context(), storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, statusResponse{
			Online:       e.Monitor.Online(),
			FailedProbes: e.Monitor.FailedProbes(),
			PendingItems: pending,
		})
	}
}

func QueueHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		items, err := e.Store.QueuedItems(c.Request.Context(), storeId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if items == nil {
			items = []models.SyncQueueItem{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func SyncNowHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := e.ForceSyncNow(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "backend unreachable: " + err.Error()})
			return
		}
		if summary == nil {
			// Another pass is already in flight.
			c.JSON(http.StatusAccepted, gin.H{"status": "sync already in progress"})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func SnapshotHandler(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeId, err := resolveStoreID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		snap := e.Loader.LoadSnapshot(c.Request.Context(), storeId)
		c.JSON(http.StatusOK, snap)
	}
}

package gateway

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kaptinlin/jsonschema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed schema.json
var updateSchemaJSON []byte

// UpdateHandler processes one inbound update. Business rejections are
// handled inside (the user gets a message); a returned error means the
// update could not be processed at all.
type UpdateHandler func(ctx context.Context, update Update) error

// NewRouter builds the inbound HTTP surface: the gateway webhook, health,
// and metrics.
func NewRouter(secret string, logger *slog.Logger, handle UpdateHandler) (*gin.Engine, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(updateSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to compile update schema: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/gateway/updates", requireSecret(secret), func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		var generic map[string]interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}

		if result := schema.Validate(generic); !result.IsValid() {
			var details []string
			for field, evalErr := range result.Errors {
				details = append(details, fmt.Sprintf("%s: %s", field, evalErr.Error()))
			}
			logger.Warn("rejected malformed update", "details", strings.Join(details, "; "))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
			return
		}

		var update Update
		if err := json.Unmarshal(raw, &update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
			return
		}

		if err := handle(c.Request.Context(), update); err != nil {
			logger.Error("update handling failed",
				"kind", update.Kind,
				"sender_id", update.SenderID,
				"error", err.Error(),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
	})

	return router, nil
}

// requireSecret guards the webhook with the shared gateway secret. An empty
// configured secret disables the check (development only).
func requireSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-Gateway-Secret") != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

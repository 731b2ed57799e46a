package api

import (
	"net/http" // HTTP status codes
	"strings"  // URL joining

	"github.com/gin-gonic/gin" // Gin web framework
)

// endpointDoc describes one programmatic endpoint
type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Body        any    `json:"body,omitempty"`
}

// DocsHandler lists the programmatic API
func DocsHandler(publicBaseURL string) gin.HandlerFunc {
	base := strings.TrimRight(publicBaseURL, "/") + "/api/v1"
	docs := gin.H{
		"baseUrl": base,
		"authentication": gin.H{
			"headers": []string{"X-Client-ID", "X-Client-Secret"},
			"note":    "Calls from addresses outside a non-empty IP allow-list are rejected",
		},
		"endpoints": []endpointDoc{
			{
				Method:      http.MethodPost,
				Path:        "/deposit",
				Description: "Create a PIX charge; the balance is credited when the processor confirms payment",
				Body:        gin.H{"amountCents": 1000, "description": "Pedido 123", "payerName": "", "payerDocument": ""},
			},
			{
				Method:      http.MethodPost,
				Path:        "/withdraw",
				Description: "Pay out to a PIX key; amount plus withdrawal fee is debited",
				Body:        gin.H{"amountCents": 1000, "destinationKey": "email@example.com", "destinationKeyType": "email"},
			},
			{Method: http.MethodGet, Path: "/balance", Description: "Balance, held funds and daily counters"},
			{Method: http.MethodGet, Path: "/transactions", Description: "Newest 50 transactions"},
		},
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, docs)
	}
}

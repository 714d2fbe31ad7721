package courier

import (
	handlershared "github.com/leafline-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getCourierID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "courier_id", "error.courier_id_invalid", "error.courier_id_type_invalid")
}

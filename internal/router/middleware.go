package router

import (
	"net/http"

	"botgate/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// adminPasswordHeader carries the admin password on stats requests.
const adminPasswordHeader = "X-Admin-Password"

// AdminAuth gates the admin routes behind the configured bcrypt hash. With
// no hash configured the routes simply do not exist.
func AdminAuth(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := config.Conf.Admin.PasswordHash
		if hash == "" {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		password := c.GetHeader(adminPasswordHeader)
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			log.Warn("Rejected admin request", zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

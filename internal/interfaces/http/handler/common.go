package handler

import "github.com/gin-gonic/gin"

// defaultUserID 未携带用户标识时的默认用户
const defaultUserID = "local"

// userID 从请求头解析调用者身份
// 单机部署下前端可以不携带该头,所有数据归属默认用户
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}

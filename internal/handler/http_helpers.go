package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func trimmedPostForm(c *gin.Context, key string) string {
	return strings.TrimSpace(c.PostForm(key))
}

func parseIntForm(c *gin.Context, key string) (int, error) {
	raw := trimmedPostForm(c, key)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}

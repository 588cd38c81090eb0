package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mcworld/internal/world"
)

const regionsetKey = "regionset"

// corsMiddleware разрешает чтение API с любых источников
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// regionsetMiddleware находит измерение по параметру :idx и кладёт его в контекст
func (rs *RestServer) regionsetMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		idx, err := strconv.Atoi(c.Param("idx"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Индекс измерения должен быть числом",
			})
			return
		}

		set, ok := rs.world.Regionset(idx)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, GenericResponse{
				Success: false,
				Message: "Измерение не найдено",
			})
			return
		}

		c.Set(regionsetKey, set)
		c.Next()
	}
}

func regionsetFrom(c *gin.Context) *world.Regionset {
	return c.MustGet(regionsetKey).(*world.Regionset)
}

// intParams разбирает целочисленные параметры пути; при ошибке отвечает 400
func intParams(c *gin.Context, names ...string) ([]int, bool) {
	out := make([]int, len(names))
	for i, name := range names {
		v, err := strconv.Atoi(c.Param(name))
		if err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Параметр " + name + " должен быть целым числом",
			})
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

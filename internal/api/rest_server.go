package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/mcworld/internal/cache"
	"github.com/annel0/mcworld/internal/coords"
	"github.com/annel0/mcworld/internal/logging"
	"github.com/annel0/mcworld/internal/middleware"
	"github.com/annel0/mcworld/internal/observability"
	"github.com/annel0/mcworld/internal/render"
	"github.com/annel0/mcworld/internal/world"
)

// DefaultChunkListLimit - сколько чанков отдаёт список без параметра limit
const DefaultChunkListLimit = 1000

// RestServer - REST API только для чтения поверх открытого мира
type RestServer struct {
	router  *gin.Engine
	world   *world.World
	addr    string
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr  string       // адрес для запуска сервера
	World *world.World // открытый мир

	// Registerer и Gatherer для HTTP-метрик и /metrics; nil - дефолтный регистр
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// ServiceName для otelgin и пространства имён метрик
	ServiceName string
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "mcworld"
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware(config.ServiceName+"_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Gatherer)

	server := &RestServer{
		router:  router,
		world:   config.World,
		addr:    config.Addr,
		metrics: NewServerMetrics(),
		logger:  logging.GetAPILogger(),
	}
	server.setupRoutes()
	return server
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Addr возвращает адрес, на котором слушает сервер
func (rs *RestServer) Addr() string {
	return rs.addr
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	api.GET("/world", rs.handleWorld)
	api.GET("/stats", rs.handleStats)

	sets := api.Group("/regionsets/:idx")
	sets.Use(rs.regionsetMiddleware())
	{
		sets.GET("", rs.handleRegionset)
		sets.GET("/chunks", rs.handleChunkList)
		sets.GET("/chunks/:x/:z", rs.handleChunk)
		sets.GET("/blocks/:x/:z/height", rs.handleBlockHeight)
		sets.GET("/regions/:x/:z/heightmap.png", rs.handleRegionHeightmap)
	}
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "regionsets": len(rs.world.Regionsets())})
}

// RegionsetInfo - краткое описание измерения
type RegionsetInfo struct {
	Index   int    `json:"index"`
	Dir     string `json:"dir"`
	Type    string `json:"type"`
	Regions int    `json:"regions"`
}

func describe(i int, set *world.Regionset) RegionsetInfo {
	return RegionsetInfo{Index: i, Dir: set.Dir(), Type: set.Type(), Regions: set.Index().Len()}
}

func (rs *RestServer) handleWorld(c *gin.Context) {
	sets := rs.world.Regionsets()
	infos := make([]RegionsetInfo, len(sets))
	for i, set := range sets {
		infos[i] = describe(i, set)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о мире",
		Data: gin.H{
			"name":       rs.world.Name(),
			"root":       rs.world.Root(),
			"regionsets": infos,
		},
	})
}

func (rs *RestServer) handleRegionset(c *gin.Context) {
	set := regionsetFrom(c)
	idx, _ := strconv.Atoi(c.Param("idx"))

	regions := make([][2]int, 0, set.Index().Len())
	for _, pos := range set.Index().Positions() {
		regions = append(regions, [2]int{pos.X, pos.Z})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Измерение",
		Data: gin.H{
			"info":    describe(idx, set),
			"regions": regions,
			"cache":   set.CacheStats(),
		},
	})
}

// ChunkInfo - ответ о чанке
type ChunkInfo struct {
	X         int     `json:"x"`
	Z         int     `json:"z"`
	Region    [2]int  `json:"region"`
	Mtime     int64   `json:"mtime,omitempty"`
	Heightmap []int32 `json:"heightmap,omitempty"`
}

func (rs *RestServer) handleChunk(c *gin.Context) {
	xz, ok := intParams(c, "x", "z")
	if !ok {
		return
	}
	set := regionsetFrom(c)
	pos := coords.ChunkInWorld{X: xz[0], Z: xz[1]}

	ctx, span := observability.Tracer().Start(c.Request.Context(), "world.LoadChunk")
	span.SetAttributes(
		attribute.String("regionset", set.Dir()),
		attribute.Int("chunk.x", pos.X),
		attribute.Int("chunk.z", pos.Z),
	)
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	chunk, err := set.LoadChunk(pos)
	switch {
	case errors.Is(err, world.ErrChunkNotFound):
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Чанк отсутствует"})
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "повреждённый чанк")
		rs.logger.Warn("⚠️ Чанк %s в %s повреждён: %v", pos, set.Dir(), err)
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: "Чанк повреждён"})
		return
	}

	_, region := coords.RegionOf(pos)
	info := ChunkInfo{X: pos.X, Z: pos.Z, Region: [2]int{region.X, region.Z}}
	if mtime, ok := set.GetChunkMtime(pos); ok {
		info.Mtime = mtime.Unix()
	}
	if hm, err := chunk.Heightmap(); err == nil {
		info.Heightmap = hm.Values()
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Чанк", Data: info})
}

func (rs *RestServer) handleChunkList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultChunkListLimit)))
	if err != nil || limit <= 0 {
		limit = DefaultChunkListLimit
	}

	type stamp struct {
		X     int   `json:"x"`
		Z     int   `json:"z"`
		Mtime int64 `json:"mtime"`
	}
	chunks := make([]stamp, 0)
	truncated := false
	for s := range regionsetFrom(c).Chunks() {
		if len(chunks) == limit {
			truncated = true
			break
		}
		chunks = append(chunks, stamp{X: s.Pos.X, Z: s.Pos.Z, Mtime: s.Mtime.Unix()})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список чанков",
		Data:    gin.H{"chunks": chunks, "truncated": truncated},
	})
}

func (rs *RestServer) handleBlockHeight(c *gin.Context) {
	xz, ok := intParams(c, "x", "z")
	if !ok {
		return
	}
	block := coords.BlockInWorld{X: xz[0], Z: xz[1]}
	local, chunkPos := coords.ChunkOfBlock(block)

	chunk, found := regionsetFrom(c).GetChunk(chunkPos)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Чанк отсутствует"})
		return
	}
	hm, err := chunk.Heightmap()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{Success: false, Message: "Нет карты высот"})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Высота колонки",
		Data: gin.H{
			"x":      block.X,
			"z":      block.Z,
			"chunk":  [2]int{chunkPos.X, chunkPos.Z},
			"local":  [2]int{local.X, local.Z},
			"height": hm.AtBlock(local),
		},
	})
}

func (rs *RestServer) handleRegionHeightmap(c *gin.Context) {
	xz, ok := intParams(c, "x", "z")
	if !ok {
		return
	}
	set := regionsetFrom(c)
	pos := coords.RegionPos{X: xz[0], Z: xz[1]}
	if !set.Index().Has(pos) {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Регион отсутствует"})
		return
	}

	scale := 1
	if v := c.Query("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > render.MaxScale {
			c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Некорректный масштаб"})
			return
		}
		scale = n
	}

	_, span := observability.Tracer().Start(c.Request.Context(), "render.RegionHeightmap")
	gray, drawn := render.RegionHeightmap(set, pos)
	span.SetAttributes(attribute.Int("chunks", drawn), attribute.Int("scale", scale))
	span.End()

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, render.Scale(gray, scale)); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка кодирования PNG"})
		return
	}
	c.Header("Cache-Control", "max-age=60")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (rs *RestServer) handleStats(c *gin.Context) {
	caches := make(map[string]cache.CacheMetrics)
	for _, set := range rs.world.Regionsets() {
		caches[set.Dir()] = set.CacheStats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: gin.H{
			"process":     rs.metrics.Collect(),
			"caches":      caches,
			"server_time": time.Now().Unix(),
		},
	})
}

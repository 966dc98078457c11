package api

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rawblock/cmgen/internal/config"
	"github.com/rawblock/cmgen/internal/generator"
	"github.com/rawblock/cmgen/internal/logging"
	"github.com/rawblock/cmgen/internal/render"
	"github.com/rawblock/cmgen/pkg/models"
)

const (
	pngFilename  = "confusion_matrix.png"
	xlsxFilename = "confusion_matrix.xlsx"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type APIHandler struct {
	cfg    *config.Config
	gen    *generator.Generator
	logger *zap.Logger
}

func SetupRouter(cfg *config.Config, logger *zap.Logger, gen *generator.Generator) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.SetHTMLTemplate(pageTemplate)
	r.Use(gin.Recovery(), logging.RequestID(), logging.Middleware(logger), corsMiddleware(cfg.AllowedOrigins))

	handler := &APIHandler{cfg: cfg, gen: gen, logger: logger}
	limiter := NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)
	bodyLimit := limitBody(cfg.MaxUploadBytes)

	r.GET("/", handler.handleIndex)
	r.POST("/generate", limiter.Middleware(), bodyLimit, handler.handleGenerate)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handler.handleHealth)

		protected := api.Group("", limiter.Middleware(), AuthMiddleware(cfg.AuthToken, cfg.GinMode == gin.ReleaseMode, logger))
		protected.GET("/colormaps", handler.handleColorMaps)
		protected.POST("/matrix", bodyLimit, handler.handleMatrix)
		protected.POST("/matrix/png", bodyLimit, handler.handleMatrixPNG)
		protected.POST("/matrix/xlsx", bodyLimit, handler.handleMatrixXLSX)
	}

	return r
}

// corsMiddleware allows the configured origins, or any origin when none are set.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range allowedOrigins {
				if allowed == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Add("Vary", "Origin")
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// limitBody caps request bodies so oversized uploads fail while being read.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// bind decodes the form or JSON body according to the request content type.
func bind(c *gin.Context) (*generateForm, error) {
	var form generateForm
	if err := c.ShouldBind(&form); err != nil {
		return &form, &bindError{err: err}
	}
	return &form, nil
}

// failure maps err onto an HTTP status and error body.
func (h *APIHandler) failure(c *gin.Context, err error) (int, models.ErrorResponse) {
	var (
		tooLarge *http.MaxBytesError
		verrs    validator.ValidationErrors
		berr     *bindError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Error: fmt.Sprintf("Upload exceeds the %d byte limit", tooLarge.Limit),
			Code:  "upload_too_large",
		}
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, models.ErrorResponse{Error: validationMessage(verrs), Code: "validation_failed"}
	case errors.As(err, &berr):
		return http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error(), Code: "bad_request"}
	case generator.IsUserError(err):
		return http.StatusBadRequest, models.ErrorResponse{Error: err.Error(), Code: generator.Code(err)}
	default:
		logging.With(h.logger, c).Error("Request failed", zap.Error(err))
		return http.StatusInternalServerError, models.ErrorResponse{
			Error: "Could not generate the confusion matrix",
			Code:  generator.Code(err),
		}
	}
}

func (h *APIHandler) abort(c *gin.Context, err error) {
	status, body := h.failure(c, err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// generate binds the request and runs the full pipeline.
func (h *APIHandler) generate(c *gin.Context, form *generateForm) (*generator.Result, error) {
	in, done, err := form.open()
	if err != nil {
		return nil, err
	}
	defer done()
	return h.gen.Generate(c.Request.Context(), generator.Request{Input: in, ColorMap: form.colorMap()})
}

// handleMatrix returns the matrix, metrics and a base64 PNG as JSON.
func (h *APIHandler) handleMatrix(c *gin.Context) {
	form, err := bind(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	result, err := h.generate(c, form)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(result, form.colorMap()))
}

// handleMatrixPNG returns only the heatmap image as a download.
func (h *APIHandler) handleMatrixPNG(c *gin.Context) {
	form, err := bind(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	result, err := h.generate(c, form)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+pngFilename+`"`)
	c.Data(http.StatusOK, "image/png", result.PNG)
}

// handleMatrixXLSX returns the matrix and metrics as a workbook. No image is drawn.
func (h *APIHandler) handleMatrixXLSX(c *gin.Context) {
	form, err := bind(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	in, done, err := form.open()
	if err != nil {
		h.abort(c, err)
		return
	}
	defer done()

	result, err := h.gen.Evaluate(c.Request.Context(), in)
	if err != nil {
		h.abort(c, err)
		return
	}
	out, err := h.gen.Workbook(result)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+xlsxFilename+`"`)
	c.Data(http.StatusOK, xlsxMIME, out)
}

// handleColorMaps lists the supported color maps.
func (h *APIHandler) handleColorMaps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"colormaps": render.Names(),
		"default":   render.DefaultColorMap,
	})
}

// handleHealth returns service status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "cmgen",
		"capabilities": gin.H{
			"csv_upload":        true,
			"xlsx_upload":       true,
			"xlsx_export":       true,
			"agreement_metrics": true,
		},
		"inputPrecedence": h.cfg.InputPrecedence.String(),
		"limits": gin.H{
			"maxClasses":     h.cfg.MaxClasses,
			"maxUploadBytes": h.cfg.MaxUploadBytes,
		},
	})
}

func toResponse(result *generator.Result, colorMap string) models.MatrixResponse {
	rep := result.Report
	resp := models.MatrixResponse{
		Source:  string(result.Source),
		Notices: result.Notices,
		Classes: result.Matrix.Classes,
		Matrix:  result.Matrix.Rows(),
		Metrics: models.Metrics{
			Samples:   rep.Samples,
			Accuracy:  rep.Accuracy,
			Precision: rep.Precision,
			Recall:    rep.Recall,
			F1:        rep.F1,
		},
		Agreement: models.Agreement{
			Kappa:                  result.Agreement.Kappa,
			AdjustedRandIndex:      result.Agreement.AdjustedRandIndex,
			VariationOfInformation: result.Agreement.VariationOfInformation,
		},
		ColorMap: colorMap,
		ImagePNG: base64.StdEncoding.EncodeToString(result.PNG),
	}
	for _, row := range rep.Table() {
		resp.Table = append(resp.Table, models.MetricRow{Metric: row.Metric, Value: row.Value})
	}
	for _, s := range rep.PerClass {
		resp.PerClass = append(resp.PerClass, models.ClassScore{
			Class: s.Class, Precision: s.Precision, Recall: s.Recall, F1: s.F1, Support: s.Support,
		})
	}
	return resp
}

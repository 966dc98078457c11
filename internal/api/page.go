package api

import (
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rawblock/cmgen/internal/generator"
	"github.com/rawblock/cmgen/internal/logging"
	"github.com/rawblock/cmgen/internal/metrics"
	"github.com/rawblock/cmgen/internal/render"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{"fmt4": metrics.FormatValue}).
		ParseFS(templateFS, "templates/index.html"),
)

// pageData feeds templates/index.html. Form values are echoed back so a failed
// submission can be corrected in place.
type pageData struct {
	ColorMaps  []string
	ColorMap   string
	TrueLabels string
	PredLabels string
	Error      string
	Notices    []string
	Result     *pageResult
}

type pageResult struct {
	Table       []metrics.Row
	PerClass    []metrics.ClassScore
	Agreement   metrics.Agreement
	ImageURL    template.URL
	WorkbookURL template.URL
}

func newPageData() pageData {
	return pageData{ColorMaps: render.Names(), ColorMap: render.DefaultColorMap}
}

func (h *APIHandler) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPageData())
}

// handleGenerate processes the form and re-renders the page with the results or
// the error message.
func (h *APIHandler) handleGenerate(c *gin.Context) {
	data := newPageData()

	form, err := bind(c)
	data.TrueLabels, data.PredLabels = form.TrueLabels, form.PredLabels
	if render.IsValid(form.ColorMap) {
		data.ColorMap = form.ColorMap
	}
	if err == nil {
		var result *generator.Result
		result, err = h.generate(c, form)
		if err == nil {
			data.Notices = result.Notices
			data.Result = h.pageResult(c, result)
			c.HTML(http.StatusOK, "index.html", data)
			return
		}
	}

	status, body := h.failure(c, err)
	_ = c.Error(err)
	data.Error = body.Error
	c.HTML(status, "index.html", data)
}

func (h *APIHandler) pageResult(c *gin.Context, result *generator.Result) *pageResult {
	pr := &pageResult{
		Table:     result.Report.Table(),
		PerClass:  result.Report.PerClass,
		Agreement: result.Agreement,
		ImageURL:  dataURL("image/png", result.PNG),
	}
	// The workbook is optional on the page; the image is the main artifact.
	if out, err := h.gen.Workbook(result); err == nil {
		pr.WorkbookURL = dataURL(xlsxMIME, out)
	} else {
		logging.With(h.logger, c).Warn("Workbook link skipped", zap.Error(err))
	}
	return pr
}

func dataURL(mime string, b []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b))
}

package api

import (
	"fmt"
	"mime/multipart"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/rawblock/cmgen/internal/labels"
	"github.com/rawblock/cmgen/internal/render"
)

// generateForm is shared by the HTML form (multipart) and the JSON API.
type generateForm struct {
	TrueLabels string                `form:"true_labels" json:"trueLabels"`
	PredLabels string                `form:"pred_labels" json:"predLabels"`
	ColorMap   string                `form:"colormap" json:"colormap" binding:"omitempty,colormap"`
	File       *multipart.FileHeader `form:"file" json:"-"`
}

func (f *generateForm) colorMap() string {
	if f.ColorMap == "" {
		return render.DefaultColorMap
	}
	return f.ColorMap
}

// open turns the form into resolver input. The returned func closes the upload.
func (f *generateForm) open() (labels.Input, func(), error) {
	in := labels.Input{ManualTrue: f.TrueLabels, ManualPred: f.PredLabels}
	if f.File == nil || f.File.Filename == "" {
		return in, func() {}, nil
	}
	file, err := f.File.Open()
	if err != nil {
		return in, func() {}, errors.Wrap(labels.ErrFileRead, err.Error())
	}
	in.Upload = &labels.Upload{Name: f.File.Filename, Body: file}
	return in, func() { file.Close() }, nil
}

// bindError marks a request that could not be decoded.
type bindError struct{ err error }

func (e *bindError) Error() string { return e.err.Error() }
func (e *bindError) Unwrap() error { return e.err }

var registerOnce sync.Once

// registerValidators adds the `colormap` tag to gin's validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("colormap", func(fl validator.FieldLevel) bool {
			return render.IsValid(fl.Field().String())
		})
	})
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "colormap":
			msgs = append(msgs, fmt.Sprintf("color map %q is not supported (choose one of: %s)",
				fe.Value(), strings.Join(render.Names(), ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

package labels

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Precedence decides which channel feeds the computation when an upload and both
// manual fields are present in the same submission.
type Precedence int

const (
	// ManualOverridesUpload uses the manual fields whenever both are non-empty. The
	// upload is not parsed.
	ManualOverridesUpload Precedence = iota
	// UploadOverridesManual uses the upload when it parses and has at least one row,
	// and falls back to the manual fields otherwise.
	UploadOverridesManual
)

// ParsePrecedence maps "manual" or "upload" onto a Precedence.
func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "manual":
		return ManualOverridesUpload, nil
	case "upload":
		return UploadOverridesManual, nil
	default:
		return 0, errors.Errorf("unknown input precedence %q (want manual or upload)", s)
	}
}

func (p Precedence) String() string {
	if p == UploadOverridesManual {
		return "upload"
	}
	return "manual"
}

// Source names the channel a resolution came from.
type Source string

const (
	SourceUpload Source = "upload"
	SourceManual Source = "manual"
)

// Upload is a tabular file attached to a submission.
type Upload struct {
	Name string
	Body io.Reader
}

// Input is one submission of the form.
type Input struct {
	Upload     *Upload
	ManualTrue string
	ManualPred string
}

// Resolution is the pair of sequences chosen for the computation.
type Resolution struct {
	True    []string
	Pred    []string
	Source  Source
	Notices []string
}

// Len is the number of samples.
func (r *Resolution) Len() int { return len(r.True) }

// Resolver turns a submission into label sequences.
type Resolver struct {
	Precedence Precedence
}

// NewResolver returns a resolver using the given precedence rule.
func NewResolver(p Precedence) *Resolver {
	return &Resolver{Precedence: p}
}

// Resolve picks a channel, reads both sequences and checks they pair up.
func (r *Resolver) Resolve(in Input) (*Resolution, error) {
	res, err := r.pick(in)
	if err != nil {
		return nil, err
	}
	if len(res.True) != len(res.Pred) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d true labels, %d predicted labels", len(res.True), len(res.Pred))
	}
	if len(res.True) == 0 {
		return nil, errors.Wrapf(ErrEmptyLabels, "%s input has no rows", res.Source)
	}
	return res, nil
}

func (r *Resolver) pick(in Input) (*Resolution, error) {
	manual := provided(in.ManualTrue) && provided(in.ManualPred)
	hasUpload := in.Upload != nil && in.Upload.Body != nil

	switch {
	case manual && !hasUpload:
		return fromManual(in)
	case manual && r.Precedence == ManualOverridesUpload:
		res, err := fromManual(in)
		if err != nil {
			return nil, err
		}
		res.Notices = append(res.Notices, fmt.Sprintf("Manual labels override the uploaded file %q.", in.Upload.Name))
		return res, nil
	case manual:
		res, err := fromUpload(in.Upload)
		if err == nil && res.Len() > 0 {
			return res, nil
		}
		if err == nil {
			err = errors.Wrapf(ErrEmptyLabels, "%s has no rows", in.Upload.Name)
		}
		res, merr := fromManual(in)
		if merr != nil {
			return nil, err
		}
		res.Notices = append(res.Notices, fmt.Sprintf("Upload %q was not usable (%v); using manual labels.", in.Upload.Name, err))
		return res, nil
	case hasUpload:
		return fromUpload(in.Upload)
	case provided(in.ManualTrue):
		return nil, errors.Wrap(ErrNoInput, "predicted labels are missing")
	case provided(in.ManualPred):
		return nil, errors.Wrap(ErrNoInput, "true labels are missing")
	default:
		return nil, errors.Wrap(ErrNoInput, "upload a file or enter both label lists")
	}
}

func fromManual(in Input) (*Resolution, error) {
	t, err := ParseLabels(in.ManualTrue)
	if err != nil {
		return nil, errors.Wrap(err, "true labels")
	}
	p, err := ParseLabels(in.ManualPred)
	if err != nil {
		return nil, errors.Wrap(err, "predicted labels")
	}
	return &Resolution{True: t, Pred: p, Source: SourceManual}, nil
}

func fromUpload(u *Upload) (*Resolution, error) {
	table, err := ReadTable(u.Body, FormatFromFilename(u.Name))
	if err != nil {
		return nil, errors.Wrap(err, u.Name)
	}
	return &Resolution{
		True:   table.True,
		Pred:   table.Pred,
		Source: SourceUpload,
		Notices: []string{fmt.Sprintf("Loaded %d rows from %q (true: %q, pred: %q).",
			len(table.True), u.Name, table.Columns.TrueName, table.Columns.PredName)},
	}, nil
}

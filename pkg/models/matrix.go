package models

// MetricRow is one line of the headline metrics table
type MetricRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"` // formatted with four decimals
}

// ClassScore holds the one-vs-rest scores of a single class
type ClassScore struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"` // number of samples whose true label is Class
}

// Metrics is the numeric record behind the metrics table
type Metrics struct {
	Samples   int     `json:"samples"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"` // support-weighted
	Recall    float64 `json:"recall"`    // support-weighted
	F1        float64 `json:"f1"`        // support-weighted
}

// Agreement reads the confusion matrix as a contingency table
type Agreement struct {
	Kappa                  float64 `json:"kappa"`
	AdjustedRandIndex      float64 `json:"adjustedRandIndex"`
	VariationOfInformation float64 `json:"variationOfInformation"` // bits
}

// MatrixResponse is the JSON body of POST /api/v1/matrix
type MatrixResponse struct {
	Source    string       `json:"source"` // "upload" or "manual"
	Notices   []string     `json:"notices,omitempty"`
	Classes   []string     `json:"classes"`
	Matrix    [][]int      `json:"matrix"` // rows = true, columns = predicted
	Metrics   Metrics      `json:"metrics"`
	Table     []MetricRow  `json:"table"`
	PerClass  []ClassScore `json:"perClass"`
	Agreement Agreement    `json:"agreement"`
	ColorMap  string       `json:"colormap"`
	ImagePNG  string       `json:"imagePng,omitempty"` // base64
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
